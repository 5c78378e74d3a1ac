package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/remakery/storefront-backend/api/middleware"
	"github.com/remakery/storefront-backend/api/responses"
	"github.com/remakery/storefront-backend/api/validators"
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	"github.com/remakery/storefront-backend/internal/pricing"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
)

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

// Fetch replaces the local cart with the server-authoritative one and
// returns it with a freshly computed summary.
func Fetch(svc cartsvc.Service, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Hydrate(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(lines, rates))
	}
}

// AddItem merges a listing into the cart.
func AddItem(svc cartsvc.Service, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := uuid.Parse(req.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
			return
		}

		result, err := svc.AddItem(r.Context(), buyerID, listingID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var warnings []string
		if result.Clamped {
			warnings = append(warnings, "requested quantity exceeds available stock; quantity was reduced")
		}
		responses.WriteSuccess(w, newCartView(svc.Lines(buyerID), rates, warnings...))
	}
}

// UpdateItem replaces a line's quantity.
func UpdateItem(svc cartsvc.Service, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id"))
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.UpdateQuantity(r.Context(), buyerID, lineID, req.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(svc.Lines(buyerID), rates))
	}
}

// RemoveItem deletes a line. Unknown line ids succeed as a no-op.
func RemoveItem(svc cartsvc.Service, rates pricing.Rates, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := uuid.Parse(chi.URLParam(r, "lineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line id"))
			return
		}

		if err := svc.RemoveItem(r.Context(), buyerID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(svc.Lines(buyerID), rates))
	}
}
