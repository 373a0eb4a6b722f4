package locations

import (
	"context"
	"errors"
	"strings"
)

func (s *Service) validate(ctx context.Context, l Location) error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("location name is required")
	}
	if l.Kind != KindStore && l.Kind != KindWarehouse {
		return errors.New("location kind must be store or warehouse")
	}
	if l.ParentStoreID != nil {
		parent, err := s.repo.Get(ctx, *l.ParentStoreID)
		if err != nil {
			return errors.New("parent store does not exist")
		}
		if parent.Kind != KindStore {
			return errors.New("parent must be a store")
		}
	}
	return nil
}
