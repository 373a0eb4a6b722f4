package customers

import "time"

// Customer belongs to a location; operational users only ever see the
// customers of their own locations.
type Customer struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"location_id"`
	Name       string    `json:"name"`
	CUI        string    `json:"cui,omitempty"`
	RegCom     string    `json:"reg_com,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	County     string    `json:"county,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilters narrows customer listings.
type ListFilters struct {
	Search     string
	LocationID *int64
	Page       int
	Limit      int
}
