package checkout

import (
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	checkoutsvc "github.com/remakery/storefront-backend/internal/checkout"
	"github.com/remakery/storefront-backend/internal/pricing"
)

type checkoutView struct {
	Selection   checkoutsvc.Selection `json:"selection"`
	CurrentStep string                `json:"current_step"`
	Summary     pricing.Display       `json:"summary"`
}

type stepView struct {
	Requested  string `json:"requested"`
	Resolved   string `json:"resolved"`
	Redirected bool   `json:"redirected"`
}

func newCheckoutView(sel checkoutsvc.Selection, lines []cartsvc.LineItem, rates pricing.Rates) checkoutView {
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		priced = append(priced, pricing.Line{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	return checkoutView{
		Selection:   sel,
		CurrentStep: checkoutsvc.Current(sel).String(),
		Summary:     pricing.Compute(priced, rates).Display(),
	}
}
