package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is the marketplace material/product view the cart snapshots from.
type Listing struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	AvailableQuantity int             `json:"available_quantity"`
	SupplierID        uuid.UUID       `json:"supplier_id"`
}

// CartLine mirrors one server-side cart entry, including the server-clamped
// quantity and the availability bound.
type CartLine struct {
	ID                uuid.UUID       `json:"id"`
	ListingID         uuid.UUID       `json:"listing_id"`
	Title             string          `json:"title"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
}

// CartSnapshot is the authoritative line-item list returned by the cart
// service after every read or mutation.
type CartSnapshot struct {
	Items []CartLine `json:"items"`
}

// Address is an entry from the buyer's address book.
type Address struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
}

// ProcessCheckoutRequest is the single commit payload. Line items are never
// shipped; the order service re-reads the authoritative cart.
type ProcessCheckoutRequest struct {
	PaymentToken      string    `json:"payment_token"`
	ShippingAddressID uuid.UUID `json:"shipping_address_id"`
	ShippingMethodID  string    `json:"shipping_method_id"`
}

// Order is the committed order returned by the order service.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
