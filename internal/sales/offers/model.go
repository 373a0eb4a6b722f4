package offers

import "time"

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Offer belongs to a location and to the user who created it. Header
// totals are never stored from the form: they are recomputed from the
// lines on every create and save.
type Offer struct {
	ID            int64       `json:"id"`
	Number        string      `json:"number"`
	LocationID    int64       `json:"location_id"`
	UserID        int64       `json:"user_id"`
	CustomerID    int64       `json:"customer_id"`
	Status        Status      `json:"status"`
	Currency      string      `json:"currency"`
	Subtotal      float64     `json:"subtotal"`
	DiscountTotal float64     `json:"discount_total"`
	TaxTotal      float64     `json:"tax_total"`
	Total         float64     `json:"total"`
	Notes         *string     `json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Lines         []OfferLine `json:"lines,omitempty"`
}

type OfferLine struct {
	ID              int64   `json:"id"`
	OfferID         int64   `json:"offer_id"`
	ProductID       int64   `json:"product_id"`
	Description     *string `json:"description,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	TaxPercent      float64 `json:"tax_percent"`
	LineTotal       float64 `json:"line_total"`
	LineOrder       int     `json:"line_order"`
}

// OfferWithDetails joins display names for the list page.
type OfferWithDetails struct {
	Offer
	CustomerName string `json:"customer_name"`
	UserName     string `json:"user_name"`
	LocationName string `json:"location_name"`
}
