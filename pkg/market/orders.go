package market

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type addressListResponse struct {
	Items []Address `json:"items"`
}

type orderListResponse struct {
	Items []Order `json:"items"`
}

// GetMyAddresses lists the buyer's address book entries.
func (c *Client) GetMyAddresses(ctx context.Context) ([]Address, error) {
	var resp addressListResponse
	if err := c.getJSON(ctx, "/v1/addresses", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ProcessCheckout issues the single atomic order commit. The call is never
// retried here: a duplicate submit could create a second order.
func (c *Client) ProcessCheckout(ctx context.Context, req ProcessCheckoutRequest) (*Order, error) {
	var order Order
	if err := c.sendJSON(ctx, http.MethodPost, "/v1/checkout", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderDetails loads one committed order.
func (c *Client) GetOrderDetails(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var order Order
	path := fmt.Sprintf("/v1/orders/%s", orderID)
	if err := c.getJSON(ctx, path, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetMyPurchases lists orders the caller placed as a buyer.
func (c *Client) GetMyPurchases(ctx context.Context) ([]Order, error) {
	var resp orderListResponse
	if err := c.getJSON(ctx, "/v1/orders/purchases", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetMySales lists orders the caller received as a supplier.
func (c *Client) GetMySales(ctx context.Context) ([]Order, error) {
	var resp orderListResponse
	if err := c.getJSON(ctx, "/v1/orders/sales", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
