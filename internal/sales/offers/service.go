package offers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stockline-erp/stockline/internal/sales/customers"
	"github.com/stockline-erp/stockline/internal/sales/shared"
	sharedpkg "github.com/stockline-erp/stockline/internal/shared"
)

var ErrInvalidStatus = errors.New("invalid status transition")

type Service struct {
	repo         Repository
	customerRepo customers.Repository
	validate     *validator.Validate
}

func NewService(repo Repository, customerRepo customers.Repository) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		validate:     validator.New(),
	}
}

// Create builds the offer header from its lines and pins non-admin
// creators to their own location.
func (s *Service) Create(ctx context.Context, actor *sharedpkg.Actor, req CreateOfferRequest) (*Offer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	locationID, err := resolveLocation(actor, req.LocationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.Get(ctx, actor, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	subtotal, discountTotal, taxTotal, total := sumLines(req.Lines)

	offer := Offer{
		LocationID:    locationID,
		UserID:        actor.ID,
		CustomerID:    req.CustomerID,
		Status:        StatusDraft,
		Currency:      req.Currency,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		TaxTotal:      taxTotal,
		Total:         total,
		Notes:         req.Notes,
	}

	var offerID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.GenerateNumber(ctx, locationID, time.Now())
		if err != nil {
			return fmt.Errorf("generate offer number: %w", err)
		}
		offer.Number = number

		offerID, err = repo.Create(ctx, offer)
		if err != nil {
			return fmt.Errorf("create offer: %w", err)
		}
		return insertLines(ctx, repo, offerID, req.Lines)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, actor, offerID)
}

// Update replaces the lines and recomputes the header totals. Only draft
// offers can change.
func (s *Service) Update(ctx context.Context, actor *sharedpkg.Actor, id int64, req UpdateOfferRequest) (*Offer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft offers can be edited", ErrInvalidStatus)
	}

	if _, err := s.customerRepo.Get(ctx, actor, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	subtotal, discountTotal, taxTotal, total := sumLines(req.Lines)

	updated := *existing
	updated.CustomerID = req.CustomerID
	updated.Currency = req.Currency
	updated.Notes = req.Notes
	updated.Subtotal = subtotal
	updated.DiscountTotal = discountTotal
	updated.TaxTotal = taxTotal
	updated.Total = total

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updated); err != nil {
			return fmt.Errorf("update offer: %w", err)
		}
		if err := repo.DeleteLines(ctx, id); err != nil {
			return fmt.Errorf("delete offer lines: %w", err)
		}
		return insertLines(ctx, repo, id, req.Lines)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, actor, id)
}

func (s *Service) Get(ctx context.Context, actor *sharedpkg.Actor, id int64) (*Offer, error) {
	return s.repo.Get(ctx, actor, id)
}

func (s *Service) List(ctx context.Context, actor *sharedpkg.Actor, filters ListFilters) ([]OfferWithDetails, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 25
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return s.repo.List(ctx, actor, filters)
}

func (s *Service) ChangeStatus(ctx context.Context, actor *sharedpkg.Actor, id int64, status Status) error {
	existing, err := s.repo.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !validTransition(existing.Status, status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, existing.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, actor *sharedpkg.Actor, id int64) error {
	existing, err := s.repo.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if existing.Status != StatusDraft {
		return fmt.Errorf("%w: only draft offers can be deleted", ErrInvalidStatus)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

func resolveLocation(actor *sharedpkg.Actor, requested int64) (int64, error) {
	if actor.IsAdmin() {
		if requested == 0 {
			return 0, errors.New("location is required")
		}
		return requested, nil
	}
	pinned, ok := actor.PinnedLocationID()
	if !ok {
		return 0, errors.New("user has no location assignment")
	}
	return pinned, nil
}

func sumLines(lines []OfferLineRequest) (subtotal, discountTotal, taxTotal, total float64) {
	for _, line := range lines {
		discount, tax, lineTotal := shared.CalculateLineTotals(line.Quantity, line.UnitPrice, line.DiscountPercent, line.TaxPercent)
		subtotal += line.Quantity * line.UnitPrice
		discountTotal += discount
		taxTotal += tax
		total += lineTotal
	}
	return
}

func insertLines(ctx context.Context, repo Repository, offerID int64, lines []OfferLineRequest) error {
	for i, lineReq := range lines {
		_, _, lineTotal := shared.CalculateLineTotals(lineReq.Quantity, lineReq.UnitPrice, lineReq.DiscountPercent, lineReq.TaxPercent)
		line := OfferLine{
			OfferID:         offerID,
			ProductID:       lineReq.ProductID,
			Description:     lineReq.Description,
			Quantity:        lineReq.Quantity,
			UnitPrice:       lineReq.UnitPrice,
			DiscountPercent: lineReq.DiscountPercent,
			TaxPercent:      lineReq.TaxPercent,
			LineTotal:       lineTotal,
			LineOrder:       lineReq.LineOrder,
		}
		if line.LineOrder == 0 {
			line.LineOrder = i + 1
		}
		if _, err := repo.InsertLine(ctx, line); err != nil {
			return fmt.Errorf("insert offer line: %w", err)
		}
	}
	return nil
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent
	case StatusSent:
		return to == StatusAccepted || to == StatusRejected
	default:
		return false
	}
}
