package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockline-erp/stockline/internal/shared"
)

type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// recordAudit is best-effort; account changes never fail on audit errors.
func (s *Service) recordAudit(ctx context.Context, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := int64(0)
	if actor := shared.ActorFromContext(ctx); actor != nil {
		actorID = actor.ID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, errors.New("invalid user ID")
	}
	return s.repo.Get(ctx, id)
}

// Create hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, user User, password string) (User, error) {
	if err := s.validate(user); err != nil {
		return User{}, err
	}
	if len(password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, "user.create", created.ID, map[string]any{"email": created.Email})
	return created, nil
}

// Update saves account changes; a non-empty password replaces the hash.
func (s *Service) Update(ctx context.Context, id int64, user User, password string) error {
	if id <= 0 {
		return errors.New("invalid user ID")
	}
	if err := s.validate(user); err != nil {
		return err
	}
	if password != "" {
		if len(password) < 8 {
			return errors.New("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	} else {
		user.PasswordHash = ""
	}
	if err := s.repo.Update(ctx, id, user); err != nil {
		return err
	}
	if err := s.repo.SetLocations(ctx, id, user.LocationIDs); err != nil {
		return err
	}
	s.recordAudit(ctx, "user.update", id, map[string]any{"locations": user.LocationIDs})
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user ID")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "user.deactivate", id, nil)
	return nil
}

// LoadActor resolves the authenticated actor for authorization and
// visibility scoping. Implements rbac.ActorLoader.
func (s *Service) LoadActor(ctx context.Context, userID int64) (*shared.Actor, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return &shared.Actor{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		SuperAdmin:     user.IsSuperAdmin,
		Admin:          user.IsAdmin,
		Operational:    user.IsOperational,
		HomeLocationID: user.HomeLocationID,
		LocationIDs:    user.LocationIDs,
	}, nil
}

func (s *Service) validate(u User) error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("user name is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return errors.New("a valid email address is required")
	}
	if !u.IsSuperAdmin && !u.IsAdmin && !u.IsOperational {
		return errors.New("at least one role is required")
	}
	return nil
}
