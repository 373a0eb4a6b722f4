package rbac

import (
	"context"

	"github.com/stockline-erp/stockline/internal/shared"
)

// Role flags carried on the user record. There is no permission catalog;
// authorization is decided from these three booleans.
const (
	RoleSuperAdmin  = "super_admin"
	RoleAdmin       = "admin"
	RoleOperational = "operational"
)

// ActorLoader resolves the full actor (role flags plus operational
// locations) for an authenticated user id.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (*shared.Actor, error)
}
