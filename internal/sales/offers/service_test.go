package offers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/sales/customers"
	"github.com/stockline-erp/stockline/internal/shared"
)

type fakeRepo struct {
	offers map[int64]*Offer
	lines  map[int64][]OfferLine
	nextID int64
	seq    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{offers: map[int64]*Offer{}, lines: map[int64][]OfferLine{}, nextID: 1}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Get(_ context.Context, actor *shared.Actor, id int64) (*Offer, error) {
	o, ok := f.offers[id]
	if !ok || !visible(actor, o.LocationID) {
		return nil, shared.ErrNotFound
	}
	copied := *o
	copied.Lines = append([]OfferLine(nil), f.lines[id]...)
	return &copied, nil
}

func (f *fakeRepo) List(_ context.Context, actor *shared.Actor, _ ListFilters) ([]OfferWithDetails, int, error) {
	var out []OfferWithDetails
	for _, o := range f.offers {
		if visible(actor, o.LocationID) {
			out = append(out, OfferWithDetails{Offer: *o})
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(_ context.Context, offer Offer) (int64, error) {
	offer.ID = f.nextID
	f.nextID++
	f.offers[offer.ID] = &offer
	return offer.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, offer Offer) error {
	existing, ok := f.offers[id]
	if !ok {
		return shared.ErrNotFound
	}
	offer.ID = id
	offer.Number = existing.Number
	offer.Status = existing.Status
	offer.LocationID = existing.LocationID
	offer.UserID = existing.UserID
	f.offers[id] = &offer
	return nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	o, ok := f.offers[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeRepo) InsertLine(_ context.Context, line OfferLine) (int64, error) {
	line.ID = int64(len(f.lines[line.OfferID]) + 1)
	f.lines[line.OfferID] = append(f.lines[line.OfferID], line)
	return line.ID, nil
}

func (f *fakeRepo) DeleteLines(_ context.Context, offerID int64) error {
	delete(f.lines, offerID)
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.offers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.offers, id)
	return nil
}

func (f *fakeRepo) GenerateNumber(_ context.Context, _ int64, date time.Time) (string, error) {
	f.seq++
	return "OF-" + date.Format("0601") + "-0001", nil
}

type fakeCustomers struct {
	known map[int64]customers.Customer
}

func (f *fakeCustomers) List(_ context.Context, _ *shared.Actor, _ customers.ListFilters) ([]customers.Customer, int, error) {
	return nil, 0, nil
}

func (f *fakeCustomers) Get(_ context.Context, _ *shared.Actor, id int64) (customers.Customer, error) {
	c, ok := f.known[id]
	if !ok {
		return customers.Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomers) Create(_ context.Context, c customers.Customer) (customers.Customer, error) {
	return c, nil
}

func (f *fakeCustomers) Update(_ context.Context, _ int64, _ customers.Customer) error { return nil }
func (f *fakeCustomers) Delete(_ context.Context, _ int64) error                       { return nil }

func visible(actor *shared.Actor, locationID int64) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	for _, id := range actor.VisibleLocationIDs() {
		if id == locationID {
			return true
		}
	}
	return false
}

func locPtr(v int64) *int64 { return &v }

func testService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	custs := &fakeCustomers{known: map[int64]customers.Customer{10: {ID: 10, Name: "Acme", LocationID: 3}}}
	return NewService(repo, custs), repo
}

func draftRequest() CreateOfferRequest {
	return CreateOfferRequest{
		CustomerID: 10,
		LocationID: 3,
		Currency:   "RON",
		Lines: []OfferLineRequest{
			{ProductID: 1, Quantity: 2, UnitPrice: 100, DiscountPercent: 10, TaxPercent: 19},
			{ProductID: 2, Quantity: 1, UnitPrice: 50},
		},
	}
}

func TestCreateComputesTotalsFromLines(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 1, Admin: true, LocationIDs: []int64{3}}

	offer, err := svc.Create(context.Background(), actor, draftRequest())
	require.NoError(t, err)

	// Line 1: gross 200, discount 20, net 180, tax 34.2, total 214.2.
	// Line 2: gross 50, total 50.
	assert.InDelta(t, 250, offer.Subtotal, 0.001)
	assert.InDelta(t, 20, offer.DiscountTotal, 0.001)
	assert.InDelta(t, 34.2, offer.TaxTotal, 0.001)
	assert.InDelta(t, 264.2, offer.Total, 0.001)
	assert.Equal(t, StatusDraft, offer.Status)
	assert.Len(t, offer.Lines, 2)
	assert.NotEmpty(t, offer.Number)
}

func TestCreatePinsNonAdminLocation(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 7, Operational: true, HomeLocationID: locPtr(3), LocationIDs: []int64{3}}

	req := draftRequest()
	req.LocationID = 99
	offer, err := svc.Create(context.Background(), actor, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), offer.LocationID)
	assert.Equal(t, int64(7), offer.UserID)
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 1, Admin: true}

	req := draftRequest()
	req.CustomerID = 404
	_, err := svc.Create(context.Background(), actor, req)
	assert.Error(t, err)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 1, Admin: true}

	req := draftRequest()
	req.Lines = nil
	_, err := svc.Create(context.Background(), actor, req)
	assert.Error(t, err)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 1, Admin: true, LocationIDs: []int64{3}}

	offer, err := svc.Create(context.Background(), actor, draftRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), actor, offer.ID, UpdateOfferRequest{
		CustomerID: 10,
		Currency:   "RON",
		Lines:      []OfferLineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, updated.Total, 0.001)
	assert.Len(t, updated.Lines, 1)
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	svc, repo := testService()
	actor := &shared.Actor{ID: 1, Admin: true, LocationIDs: []int64{3}}

	offer, err := svc.Create(context.Background(), actor, draftRequest())
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), offer.ID, StatusSent))

	_, err = svc.Update(context.Background(), actor, offer.ID, UpdateOfferRequest{
		CustomerID: 10,
		Currency:   "RON",
		Lines:      []OfferLineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 100}},
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := testService()
	actor := &shared.Actor{ID: 1, Admin: true, LocationIDs: []int64{3}}

	offer, err := svc.Create(context.Background(), actor, draftRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ChangeStatus(context.Background(), actor, offer.ID, StatusSent))
	require.NoError(t, svc.ChangeStatus(context.Background(), actor, offer.ID, StatusAccepted))

	err = svc.ChangeStatus(context.Background(), actor, offer.ID, StatusDraft)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteOnlyDraft(t *testing.T) {
	svc, repo := testService()
	actor := &shared.Actor{ID: 1, Admin: true, LocationIDs: []int64{3}}

	offer, err := svc.Create(context.Background(), actor, draftRequest())
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(context.Background(), offer.ID, StatusSent))

	assert.ErrorIs(t, svc.Delete(context.Background(), actor, offer.ID), ErrInvalidStatus)
}
