package ean

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AssociationRequest is a pending claim that a barcode belongs to a
// product. Operational users file them from the scanner UI; an admin
// approves or rejects, and approval writes the EAN onto the product.
type AssociationRequest struct {
	ID           int64     `json:"id"`
	EAN          string    `json:"ean"`
	WooProductID int64     `json:"woo_product_id"`
	RequestedBy  int64     `json:"requested_by"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RequestWithDetails joins display fields for the admin review page.
type RequestWithDetails struct {
	AssociationRequest
	ProductName   string `json:"product_name"`
	ProductSKU    string `json:"product_sku"`
	RequesterName string `json:"requester_name"`
}

type CreateRequest struct {
	EAN          string `json:"ean" validate:"required,max=64"`
	WooProductID int64  `json:"woo_product_id" validate:"required,gt=0"`
}
