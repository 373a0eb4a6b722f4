package users

import "time"

// User is a back-office account. Role flags decide authorization: a
// super-admin sees everything, an admin manages master data, an
// operational user is pinned to their assigned locations.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsSuperAdmin   bool      `json:"is_super_admin"`
	IsAdmin        bool      `json:"is_admin"`
	IsOperational  bool      `json:"is_operational"`
	HomeLocationID *int64    `json:"location_id,omitempty"`
	LocationIDs    []int64   `json:"location_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListFilters narrows user listings.
type ListFilters struct {
	Search     string
	OnlyActive bool
	Page       int
	Limit      int
}
