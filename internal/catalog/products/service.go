package products

import (
	"context"
	"errors"
	"strings"
)

const searchLimit = 15

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 25
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySKU(ctx context.Context, sku string) (Product, error) {
	return s.repo.GetBySKU(ctx, strings.TrimSpace(sku))
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Search returns the top in-stock matches by name or SKU. Queries shorter
// than two characters return an empty slice, not an error, so the
// autocomplete endpoint always answers 200 with a JSON array.
func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []SearchResult{}, nil
	}
	results, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []SearchResult{}
	}
	return results, nil
}

func (s *Service) Suppliers(ctx context.Context, productID int64) ([]ProductSupplier, error) {
	return s.repo.Suppliers(ctx, productID)
}

func (s *Service) SaveSupplier(ctx context.Context, link ProductSupplier) error {
	if link.ProductID == 0 || link.SupplierID == 0 {
		return errors.New("product and supplier are required")
	}
	if link.Currency == "" {
		link.Currency = "RON"
	}
	return s.repo.SaveSupplier(ctx, link)
}

func (s *Service) RemoveSupplier(ctx context.Context, productID, supplierID int64) error {
	return s.repo.RemoveSupplier(ctx, productID, supplierID)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}
