package locations

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Location, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, errors.New("invalid location ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, location Location) (Location, error) {
	if err := s.validate(ctx, location); err != nil {
		return Location{}, err
	}
	return s.repo.Create(ctx, location)
}

func (s *Service) Update(ctx context.Context, id int64, location Location) error {
	if id <= 0 {
		return errors.New("invalid location ID")
	}
	if location.ParentStoreID != nil && *location.ParentStoreID == id {
		return errors.New("a location cannot be its own parent")
	}
	if err := s.validate(ctx, location); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, location)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid location ID")
	}
	return s.repo.Delete(ctx, id)
}
