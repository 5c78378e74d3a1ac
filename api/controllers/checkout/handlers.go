package checkout

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/remakery/storefront-backend/api/middleware"
	"github.com/remakery/storefront-backend/api/responses"
	"github.com/remakery/storefront-backend/api/validators"
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	checkoutsvc "github.com/remakery/storefront-backend/internal/checkout"
	"github.com/remakery/storefront-backend/internal/pricing"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
)

type selectionStore interface {
	Load(ctx context.Context, buyerID uuid.UUID) (checkoutsvc.Selection, error)
	SetAddress(ctx context.Context, buyerID, addressID uuid.UUID) (checkoutsvc.Selection, error)
	SetShippingMethod(ctx context.Context, buyerID uuid.UUID, method checkoutsvc.ShippingMethod) (checkoutsvc.Selection, error)
	SetPaymentMethod(ctx context.Context, buyerID uuid.UUID, ref string) (checkoutsvc.Selection, error)
	SetSavedCard(ctx context.Context, buyerID uuid.UUID, card checkoutsvc.SavedCard) (checkoutsvc.Selection, error)
	ClearSavedCard(ctx context.Context, buyerID uuid.UUID) (checkoutsvc.Selection, error)
}

type cartLines interface {
	Lines(buyerID uuid.UUID) []cartsvc.LineItem
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID) (*market.Order, error)
}

func buyerIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.BuyerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credentials")
	}
	return id, nil
}

// Fetch returns the persisted selection, the step to land on, and the
// current order summary.
func Fetch(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := store.Load(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// SetAddress records the shipping address reference.
func SetAddress(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := uuid.Parse(req.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		sel, err := store.SetAddress(r.Context(), buyerID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// SetShipping records the chosen delivery option.
func SetShipping(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setShippingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sel, err := store.SetShippingMethod(r.Context(), buyerID, checkoutsvc.ShippingMethod{
			ID:      req.ID,
			Label:   req.Label,
			Carrier: req.Carrier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// SetPayment records a stored instrument id or the alternate sentinel.
func SetPayment(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if req.Method != checkoutsvc.PaymentAlternate {
			sel, err := store.Load(r.Context(), buyerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if sel.SavedCard == nil || sel.SavedCard.ID != req.Method {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "payment method must reference the saved card or be \"alternate\""))
				return
			}
		}

		sel, err := store.SetPaymentMethod(r.Context(), buyerID, req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// SaveCard vaults the reusable card descriptor.
func SaveCard(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req saveCardRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sel, err := store.SetSavedCard(r.Context(), buyerID, checkoutsvc.SavedCard{
			ID:       req.CardID,
			LastFour: req.LastFour,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// RemoveCard drops the saved card; a payment selection pointing at it is
// cleared as well.
func RemoveCard(store selectionStore, cart cartLines, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sel, err := store.ClearSavedCard(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(sel, cart.Lines(buyerID), rates))
	}
}

// StepGate resolves whether the requested step may render, answering with
// the granted step and whether that is a redirect.
func StepGate(store selectionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := checkoutsvc.ParseStep(chi.URLParam(r, "step"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown checkout step"))
			return
		}

		sel, err := store.Load(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolved, redirected := checkoutsvc.Resolve(target, sel)
		responses.WriteSuccess(w, stepView{
			Requested:  target.String(),
			Resolved:   resolved.String(),
			Redirected: redirected,
		})
	}
}

// Confirm commits the order.
func Confirm(placer orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := placer.PlaceOrder(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order":     order,
			"next_step": checkoutsvc.StepSuccess.String(),
		})
	}
}
