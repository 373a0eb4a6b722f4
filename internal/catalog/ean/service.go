package ean

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/stockline-erp/stockline/internal/catalog/products"
	"github.com/stockline-erp/stockline/internal/shared"
)

type Service struct {
	repo     Repository
	products products.Repository
	validate *validator.Validate
}

func NewService(repo Repository, productRepo products.Repository) *Service {
	return &Service{repo: repo, products: productRepo, validate: validator.New()}
}

// Submit files a pending association request on behalf of the actor. The
// product must exist; the barcode itself is only checked for presence.
func (s *Service) Submit(ctx context.Context, actor *shared.Actor, req CreateRequest) (AssociationRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return AssociationRequest{}, err
	}

	exists, err := s.products.Exists(ctx, req.WooProductID)
	if err != nil {
		return AssociationRequest{}, fmt.Errorf("verify product: %w", err)
	}
	if !exists {
		return AssociationRequest{}, fmt.Errorf("product %d: %w", req.WooProductID, shared.ErrNotFound)
	}

	return s.repo.Create(ctx, AssociationRequest{
		EAN:          req.EAN,
		WooProductID: req.WooProductID,
		RequestedBy:  actor.ID,
	})
}

func (s *Service) List(ctx context.Context, status *Status, page, limit int) ([]RequestWithDetails, int, error) {
	if limit <= 0 {
		limit = 25
	}
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, status, page, limit)
}

// Approve marks the request approved and writes the barcode onto the
// product.
func (s *Service) Approve(ctx context.Context, id int64) error {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return fmt.Errorf("request %d is already %s", id, req.Status)
	}
	if err := s.products.SetEAN(ctx, req.WooProductID, req.EAN); err != nil {
		return fmt.Errorf("set product ean: %w", err)
	}
	return s.repo.UpdateStatus(ctx, id, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id int64) error {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return fmt.Errorf("request %d is already %s", id, req.Status)
	}
	return s.repo.UpdateStatus(ctx, id, StatusRejected)
}
