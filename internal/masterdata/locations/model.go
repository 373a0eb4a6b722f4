package locations

import "time"

// Kind discriminates stores from warehouses. A warehouse may be owned by a
// store through ParentStoreID.
const (
	KindStore     = "store"
	KindWarehouse = "warehouse"
)

// Location represents a store or warehouse.
type Location struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	ParentStoreID *int64    `json:"parent_store_id,omitempty"`
	Address       string    `json:"address"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListFilters narrows location listings.
type ListFilters struct {
	Search  string
	Kind    string
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}
