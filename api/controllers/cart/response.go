package cart

import (
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	"github.com/remakery/storefront-backend/internal/pricing"
)

type lineView struct {
	ID                string `json:"id"`
	ListingID         string `json:"listing_id"`
	Title             string `json:"title"`
	Unit              string `json:"unit,omitempty"`
	UnitPrice         string `json:"unit_price"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

type cartView struct {
	Items    []lineView      `json:"items"`
	Summary  pricing.Display `json:"summary"`
	Warnings []string        `json:"warnings,omitempty"`
}

func newCartView(lines []cartsvc.LineItem, rates pricing.Rates, warnings ...string) cartView {
	items := make([]lineView, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		items = append(items, lineView{
			ID:                line.ID.String(),
			ListingID:         line.ListingID.String(),
			Title:             line.Title,
			Unit:              line.Unit,
			UnitPrice:         line.UnitPrice.StringFixed(2),
			Quantity:          line.Quantity,
			AvailableQuantity: line.AvailableQuantity,
		})
		priced = append(priced, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	return cartView{
		Items:    items,
		Summary:  pricing.Compute(priced, rates).Display(),
		Warnings: warnings,
	}
}
