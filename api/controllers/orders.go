package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/remakery/storefront-backend/api/responses"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
)

type orderReader interface {
	GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*market.Order, error)
	GetMyPurchases(ctx context.Context) ([]market.Order, error)
	GetMySales(ctx context.Context) ([]market.Order, error)
}

type addressReader interface {
	GetMyAddresses(ctx context.Context) ([]market.Address, error)
}

// OrderDetail proxies one committed order from the order service.
func OrderDetail(client orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := client.GetOrderDetails(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderPurchases lists the caller's orders as a buyer.
func OrderPurchases(client orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := client.GetMyPurchases(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": orders})
	}
}

// OrderSales lists the caller's orders as a supplier.
func OrderSales(client orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := client.GetMySales(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": orders})
	}
}

// AddressList proxies the buyer's address book.
func AddressList(client addressReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addresses, err := client.GetMyAddresses(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": addresses})
	}
}
