package categories

import "time"

// Category mirrors a WooCommerce product category for one connection.
type Category struct {
	ID           int64     `json:"id"`
	ConnectionID int64     `json:"connection_id"`
	WooID        int64     `json:"woo_id"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	MenuOrder    *int      `json:"menu_order,omitempty"`
	Depth        int       `json:"depth"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
