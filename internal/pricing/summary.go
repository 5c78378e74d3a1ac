package pricing

import "github.com/shopspring/decimal"

// Line is the minimal cart-line view the calculator consumes.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Rates carries the flat shipping fee and the informational commission rate.
type Rates struct {
	FlatShippingFee decimal.Decimal
	CommissionRate  decimal.Decimal
}

// Summary is the derived order summary. It is recomputed on every read and
// never stored; internal values keep full decimal precision.
type Summary struct {
	Subtotal   decimal.Decimal
	Shipping   decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
}

// Display is the 2-place presentation form of a summary.
type Display struct {
	Subtotal   string `json:"subtotal"`
	Shipping   string `json:"shipping"`
	Commission string `json:"commission"`
	Total      string `json:"total"`
}

// Compute derives subtotal, shipping, commission, and total from the cart
// lines. Shipping is a flat non-zero fee whenever the cart has lines. The
// commission is a seller-side deduction shown for transparency; it is never
// added into the buyer-facing total.
func Compute(lines []Line, rates Rates) Summary {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := decimal.Zero
	if len(lines) > 0 {
		shipping = rates.FlatShippingFee
	}

	return Summary{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Commission: subtotal.Mul(rates.CommissionRate),
		Total:      subtotal.Add(shipping),
	}
}

// Display rounds the summary to two places for presentation.
func (s Summary) Display() Display {
	return Display{
		Subtotal:   s.Subtotal.StringFixed(2),
		Shipping:   s.Shipping.StringFixed(2),
		Commission: s.Commission.StringFixed(2),
		Total:      s.Total.StringFixed(2),
	}
}
