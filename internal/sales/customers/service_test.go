package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/shared"
)

type fakeRepo struct {
	customers map[int64]Customer
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: map[int64]Customer{}, nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, actor *shared.Actor, _ ListFilters) ([]Customer, int, error) {
	var out []Customer
	for _, c := range f.customers {
		if visible(actor, c.LocationID) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, actor *shared.Actor, id int64) (Customer, error) {
	c, ok := f.customers[id]
	if !ok || !visible(actor, c.LocationID) {
		return Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) Create(_ context.Context, c Customer) (Customer, error) {
	c.ID = f.nextID
	f.nextID++
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, c Customer) error {
	existing, ok := f.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.ID = existing.ID
	f.customers[id] = c
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.customers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.customers, id)
	return nil
}

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

func TestCreatePinsNonAdminToOwnLocation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	actor := &shared.Actor{ID: 7, Operational: true, HomeLocationID: locPtr(3), LocationIDs: []int64{3}}

	created, err := svc.Create(context.Background(), actor, Customer{Name: "Acme", LocationID: 99})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.LocationID)
}

func TestCreateAdminKeepsChosenLocation(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor := &shared.Actor{ID: 1, Admin: true}

	created, err := svc.Create(context.Background(), actor, Customer{Name: "Acme", LocationID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.LocationID)
}

func TestCreateAdminRequiresLocation(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor := &shared.Actor{ID: 1, Admin: true}

	_, err := svc.Create(context.Background(), actor, Customer{Name: "Acme"})
	assert.Error(t, err)
}

func TestCreateRejectsActorWithoutLocation(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor := &shared.Actor{ID: 2, Operational: true}

	_, err := svc.Create(context.Background(), actor, Customer{Name: "Acme"})
	assert.Error(t, err)
}

func TestCreateRejectsBadCUI(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor := &shared.Actor{ID: 1, Admin: true}

	_, err := svc.Create(context.Background(), actor, Customer{Name: "Acme", LocationID: 1, CUI: "abc"})
	assert.Error(t, err)
}

func TestUpdateNonAdminCannotMoveLocation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	actor := &shared.Actor{ID: 7, Operational: true, HomeLocationID: locPtr(3), LocationIDs: []int64{3}}

	created, err := svc.Create(context.Background(), actor, Customer{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(context.Background(), actor, created.ID, Customer{Name: "Acme Renamed", LocationID: 9}))
	got, err := svc.Get(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.LocationID)
	assert.Equal(t, "Acme Renamed", got.Name)
}

func TestGetOutsideVisibleLocations(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	admin := &shared.Actor{ID: 1, SuperAdmin: true}

	created, err := svc.Create(context.Background(), admin, Customer{Name: "Elsewhere", LocationID: 8})
	require.NoError(t, err)

	outsider := &shared.Actor{ID: 2, Operational: true, LocationIDs: []int64{3}}
	_, err = svc.Get(context.Background(), outsider, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
