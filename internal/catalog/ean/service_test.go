package ean

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/shared"
)

type fakeRepo struct {
	requests map[int64]AssociationRequest
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: map[int64]AssociationRequest{}, nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, req AssociationRequest) (AssociationRequest, error) {
	req.ID = f.nextID
	req.Status = StatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	f.nextID++
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (AssociationRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return AssociationRequest{}, shared.ErrNotFound
	}
	return req, nil
}

func (f *fakeRepo) List(_ context.Context, status *Status, _, _ int) ([]RequestWithDetails, int, error) {
	var out []RequestWithDetails
	for _, req := range f.requests {
		if status == nil || req.Status == *status {
			out = append(out, RequestWithDetails{AssociationRequest: req})
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	req, ok := f.requests[id]
	if !ok {
		return shared.ErrNotFound
	}
	req.Status = status
	f.requests[id] = req
	return nil
}

type fakeProducts struct {
	existing map[int64]bool
	eans     map[int64]string
}

func (f *fakeProducts) Exists(_ context.Context, id int64) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeProducts) SetEAN(_ context.Context, id int64, ean string) error {
	if !f.existing[id] {
		return shared.ErrNotFound
	}
	f.eans[id] = ean
	return nil
}

func (f *fakeProducts) List(_ context.Context, _ products.ListFilters) ([]products.Product, int, error) {
	return nil, 0, nil
}
func (f *fakeProducts) Get(_ context.Context, _ int64) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (f *fakeProducts) GetBySKU(_ context.Context, _ string) (products.Product, error) {
	return products.Product{}, shared.ErrNotFound
}
func (f *fakeProducts) Search(_ context.Context, _ string, _ int) ([]products.SearchResult, error) {
	return nil, nil
}
func (f *fakeProducts) UpsertFromWoo(_ context.Context, _ products.Product) error { return nil }
func (f *fakeProducts) Suppliers(_ context.Context, _ int64) ([]products.ProductSupplier, error) {
	return nil, nil
}
func (f *fakeProducts) SaveSupplier(_ context.Context, _ products.ProductSupplier) error {
	return nil
}
func (f *fakeProducts) RemoveSupplier(_ context.Context, _, _ int64) error { return nil }
func (f *fakeProducts) ListSuppliers(_ context.Context) ([]products.Supplier, error) {
	return nil, nil
}

func testService() (*Service, *fakeRepo, *fakeProducts) {
	repo := newFakeRepo()
	prods := &fakeProducts{existing: map[int64]bool{42: true}, eans: map[int64]string{}}
	return NewService(repo, prods), repo, prods
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	svc, _, _ := testService()
	actor := &shared.Actor{ID: 9}

	req, err := svc.Submit(context.Background(), actor, CreateRequest{EAN: "5941234567890", WooProductID: 42})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, int64(9), req.RequestedBy)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := testService()
	actor := &shared.Actor{ID: 9}

	_, err := svc.Submit(context.Background(), actor, CreateRequest{WooProductID: 42})
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), actor, CreateRequest{EAN: "5941234567890"})
	assert.Error(t, err)
}

func TestSubmitRejectsUnknownProduct(t *testing.T) {
	svc, _, _ := testService()
	actor := &shared.Actor{ID: 9}

	_, err := svc.Submit(context.Background(), actor, CreateRequest{EAN: "5941234567890", WooProductID: 404})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApproveWritesEAN(t *testing.T) {
	svc, repo, prods := testService()
	actor := &shared.Actor{ID: 9}

	req, err := svc.Submit(context.Background(), actor, CreateRequest{EAN: "5941234567890", WooProductID: 42})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), req.ID))
	assert.Equal(t, "5941234567890", prods.eans[42])
	got, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, StatusApproved, got.Status)

	// A second review of the same request is refused.
	assert.Error(t, svc.Approve(context.Background(), req.ID))
	assert.Error(t, svc.Reject(context.Background(), req.ID))
}

func TestRejectLeavesProductUntouched(t *testing.T) {
	svc, repo, prods := testService()
	actor := &shared.Actor{ID: 9}

	req, err := svc.Submit(context.Background(), actor, CreateRequest{EAN: "5941234567890", WooProductID: 42})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), req.ID))
	assert.Empty(t, prods.eans)
	got, _ := repo.Get(context.Background(), req.ID)
	assert.Equal(t, StatusRejected, got.Status)
}
