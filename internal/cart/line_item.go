package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one cart entry: a quantity of a single listing with the price
// and display snapshot taken when the listing was added.
type LineItem struct {
	ID                uuid.UUID       `json:"id"`
	ListingID         uuid.UUID       `json:"listing_id"`
	Title             string          `json:"title"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
}

// AddResult reports the merged line and whether the requested quantity was
// clamped to the available stock.
type AddResult struct {
	Line    LineItem
	Clamped bool
}
