package categories

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all categories in their persisted display order.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.ListAll(ctx)
}

// ListForConnection returns one connection's categories in display order.
func (s *Service) ListForConnection(ctx context.Context, connectionID int64) ([]Category, error) {
	if connectionID <= 0 {
		return nil, fmt.Errorf("invalid connection ID")
	}
	return s.repo.ListByConnection(ctx, connectionID)
}

// Reorder recomputes the depth-first ordering for every connection and
// persists it. Safe to run repeatedly; the sort is idempotent.
func (s *Service) Reorder(ctx context.Context) (int, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}
	ordered := SortTree(all)
	if err := s.repo.SaveOrdering(ctx, ordered); err != nil {
		return 0, fmt.Errorf("save ordering: %w", err)
	}
	return len(ordered), nil
}
