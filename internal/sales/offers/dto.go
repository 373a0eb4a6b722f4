package offers

type CreateOfferRequest struct {
	CustomerID int64              `validate:"required,gt=0"`
	LocationID int64              `validate:"gte=0"`
	Currency   string             `validate:"required,len=3"`
	Notes      *string            `validate:"-"`
	Lines      []OfferLineRequest `validate:"required,min=1,dive"`
}

type OfferLineRequest struct {
	ProductID       int64   `validate:"required,gt=0"`
	Description     *string `validate:"-"`
	Quantity        float64 `validate:"required,gt=0"`
	UnitPrice       float64 `validate:"gte=0"`
	DiscountPercent float64 `validate:"gte=0,lte=100"`
	TaxPercent      float64 `validate:"gte=0,lte=100"`
	LineOrder       int     `validate:"gte=0"`
}

type UpdateOfferRequest struct {
	CustomerID int64              `validate:"required,gt=0"`
	Currency   string             `validate:"required,len=3"`
	Notes      *string            `validate:"-"`
	Lines      []OfferLineRequest `validate:"required,min=1,dive"`
}

type ListFilters struct {
	Search     string
	CustomerID *int64
	Status     *Status
	Page       int
	Limit      int
}
