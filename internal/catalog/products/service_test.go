package products

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/shared"
)

type fakeRepo struct {
	products []Product
}

func (f *fakeRepo) List(_ context.Context, _ ListFilters) ([]Product, int, error) {
	return f.products, len(f.products), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (f *fakeRepo) GetBySKU(_ context.Context, sku string) (Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (f *fakeRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, err := f.Get(context.Background(), id)
	return err == nil, nil
}

func (f *fakeRepo) Search(_ context.Context, query string, limit int) ([]SearchResult, error) {
	var out []SearchResult
	for _, p := range f.products {
		if p.StockStatus != StockStatusInStock {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) &&
			!strings.Contains(strings.ToLower(p.SKU), strings.ToLower(query)) {
			continue
		}
		out = append(out, SearchResult{ID: p.ID, SKU: p.SKU, Name: p.Name, Price: p.Price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) UpsertFromWoo(_ context.Context, _ Product) error  { return nil }
func (f *fakeRepo) SetEAN(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeRepo) Suppliers(_ context.Context, _ int64) ([]ProductSupplier, error) {
	return nil, nil
}

func (f *fakeRepo) SaveSupplier(_ context.Context, _ ProductSupplier) error { return nil }
func (f *fakeRepo) RemoveSupplier(_ context.Context, _, _ int64) error      { return nil }
func (f *fakeRepo) ListSuppliers(_ context.Context) ([]Supplier, error)     { return nil, nil }

func stocked(id int64, sku, name string) Product {
	return Product{ID: id, SKU: sku, Name: name, StockStatus: StockStatusInStock}
}

func TestSearchShortQueryReturnsEmptySlice(t *testing.T) {
	svc := NewService(&fakeRepo{products: []Product{stocked(1, "A1", "Apple")}})

	for _, q := range []string{"", "a", " a "} {
		results, err := svc.Search(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestSearchSkipsOutOfStock(t *testing.T) {
	repo := &fakeRepo{products: []Product{
		stocked(1, "A1", "Blue Widget"),
		{ID: 2, SKU: "A2", Name: "Blue Gadget", StockStatus: "outofstock"},
	}}
	svc := NewService(repo)

	results, err := svc.Search(context.Background(), "blue")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)
}

func TestSearchCapsAtFifteen(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 30; i++ {
		repo.products = append(repo.products, stocked(int64(i+1), "SKU", "widget"))
	}
	svc := NewService(repo)

	results, err := svc.Search(context.Background(), "widget")
	require.NoError(t, err)
	assert.Len(t, results, 15)
}

func TestSearchOrdersByName(t *testing.T) {
	repo := &fakeRepo{products: []Product{
		stocked(1, "C", "Cherry"),
		stocked(2, "A", "Apple"),
		stocked(3, "B", "Banana"),
	}}
	svc := NewService(repo)

	results, err := svc.Search(context.Background(), "sku-less")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, results) // single character, below the minimum

	results, err = svc.Search(context.Background(), "an")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Banana", results[0].Name)
}

func TestSaveSupplierDefaultsCurrency(t *testing.T) {
	svc := NewService(&fakeRepo{})
	err := svc.SaveSupplier(context.Background(), ProductSupplier{ProductID: 1, SupplierID: 2})
	assert.NoError(t, err)
}

func TestSaveSupplierRequiresIDs(t *testing.T) {
	svc := NewService(&fakeRepo{})
	assert.Error(t, svc.SaveSupplier(context.Background(), ProductSupplier{ProductID: 1}))
	assert.Error(t, svc.SaveSupplier(context.Background(), ProductSupplier{SupplierID: 1}))
}
