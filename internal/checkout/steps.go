package checkout

import (
	"fmt"
	"strings"
)

// Step is one stop in the linear checkout flow.
type Step string

const (
	StepAddress      Step = "address"
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
	StepSuccess      Step = "success"
)

func (s Step) String() string {
	return string(s)
}

// ParseStep maps a path segment onto a known step.
func ParseStep(value string) (Step, error) {
	switch Step(strings.ToLower(strings.TrimSpace(value))) {
	case StepAddress:
		return StepAddress, nil
	case StepShipping:
		return StepShipping, nil
	case StepPayment:
		return StepPayment, nil
	case StepConfirmation:
		return StepConfirmation, nil
	case StepSuccess:
		return StepSuccess, nil
	}
	return "", fmt.Errorf("unknown checkout step %q", value)
}

// Resolve gates entry into the requested step against the current selection
// and returns the step the user may actually render, plus whether that is a
// redirect. Forward progress requires each prior step's data; reaching the
// confirmation without both an address and a payment reference redirects
// hard to the address step, so an incomplete confirmation screen can never
// render. Backward navigation is always granted and never touches data.
func Resolve(target Step, sel Selection) (Step, bool) {
	switch target {
	case StepAddress:
		return StepAddress, false
	case StepShipping:
		if !sel.AddressComplete() {
			return StepAddress, true
		}
		return StepShipping, false
	case StepPayment:
		if !sel.AddressComplete() {
			return StepAddress, true
		}
		if !sel.ShippingComplete() {
			return StepShipping, true
		}
		return StepPayment, false
	case StepConfirmation:
		if !sel.AddressComplete() || !sel.PaymentComplete() {
			return StepAddress, true
		}
		return StepConfirmation, false
	case StepSuccess:
		// Success is only entered through a committed order.
		if !sel.AddressComplete() || !sel.PaymentComplete() {
			return StepAddress, true
		}
		return StepConfirmation, true
	}
	return StepAddress, true
}

// Current returns the earliest incomplete step, the natural landing point
// when the storefront reopens mid-checkout.
func Current(sel Selection) Step {
	if !sel.AddressComplete() {
		return StepAddress
	}
	if !sel.ShippingComplete() {
		return StepShipping
	}
	if !sel.PaymentComplete() {
		return StepPayment
	}
	return StepConfirmation
}
