package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/stockline-erp/stockline/internal/companylookup"
	"github.com/stockline-erp/stockline/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, actor *shared.Actor, filters ListFilters) ([]Customer, int, error) {
	if filters.Limit <= 0 {
		filters.Limit = 25
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	return s.repo.List(ctx, actor, filters)
}

func (s *Service) Get(ctx context.Context, actor *shared.Actor, id int64) (Customer, error) {
	return s.repo.Get(ctx, actor, id)
}

// Create pins records made by non-admins to the actor's own location,
// regardless of what the form submitted.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, customer Customer) (Customer, error) {
	if err := s.applyLocationPolicy(actor, &customer); err != nil {
		return Customer{}, err
	}
	if err := s.validate(customer); err != nil {
		return Customer{}, err
	}
	return s.repo.Create(ctx, customer)
}

func (s *Service) Update(ctx context.Context, actor *shared.Actor, id int64, customer Customer) error {
	existing, err := s.repo.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		customer.LocationID = existing.LocationID
	}
	if err := s.validate(customer); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, customer)
}

func (s *Service) Delete(ctx context.Context, actor *shared.Actor, id int64) error {
	if _, err := s.repo.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) applyLocationPolicy(actor *shared.Actor, customer *Customer) error {
	if actor.IsAdmin() {
		if customer.LocationID == 0 {
			return errors.New("location is required")
		}
		return nil
	}
	pinned, ok := actor.PinnedLocationID()
	if !ok {
		return errors.New("user has no location assignment")
	}
	customer.LocationID = pinned
	return nil
}

func (s *Service) validate(customer Customer) error {
	if strings.TrimSpace(customer.Name) == "" {
		return errors.New("customer name is required")
	}
	if customer.CUI != "" {
		if companylookup.Normalize(customer.CUI) == "" {
			return errors.New("company identifier is not valid")
		}
	}
	return nil
}
