package products

import "time"

// Product mirrors a catalog record pulled from the e-commerce platform.
// Rows are created and refreshed by the sync jobs and webhooks, never by
// forms; the admin UI only edits the supplier pivot beneath them.
type Product struct {
	ID            int64     `json:"id"`
	ConnectionID  int64     `json:"connection_id"`
	WooID         int64     `json:"woo_id"`
	SKU           string    `json:"sku"`
	EAN           string    `json:"ean,omitempty"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	StockStatus   string    `json:"stock_status"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const StockStatusInStock = "instock"

type Supplier struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	CUI      string `json:"cui,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}

// ProductSupplier is the many-to-many pivot with purchasing attributes.
type ProductSupplier struct {
	ProductID     int64    `json:"product_id"`
	SupplierID    int64    `json:"supplier_id"`
	SupplierName  string   `json:"supplier_name"`
	SupplierSKU   string   `json:"supplier_sku,omitempty"`
	PurchasePrice float64  `json:"purchase_price"`
	Currency      string   `json:"currency"`
	LeadTimeDays  *int     `json:"lead_time_days,omitempty"`
	MinOrderQty   *float64 `json:"min_order_qty,omitempty"`
	IsPreferred   bool     `json:"is_preferred"`
	Notes         *string  `json:"notes,omitempty"`
}

type ListFilters struct {
	Search       string
	ConnectionID *int64
	StockStatus  string
	Status       string
	Page         int
	Limit        int
}

// SearchResult is the trimmed shape returned by the autocomplete endpoint.
type SearchResult struct {
	ID    int64   `json:"id"`
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
