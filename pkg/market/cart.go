package market

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type upsertCartItemRequest struct {
	ListingID uuid.UUID `json:"listing_id"`
	Quantity  int       `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart loads the authoritative cart for the calling buyer.
func (c *Client) FetchCart(ctx context.Context) (*CartSnapshot, error) {
	var snapshot CartSnapshot
	if err := c.getJSON(ctx, "/v1/cart", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// AddCartItem pushes one add/merge mutation and returns the server cart.
func (c *Client) AddCartItem(ctx context.Context, listingID uuid.UUID, quantity int) (*CartSnapshot, error) {
	var snapshot CartSnapshot
	payload := upsertCartItemRequest{ListingID: listingID, Quantity: quantity}
	if err := c.sendJSON(ctx, http.MethodPost, "/v1/cart/items", payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// UpdateCartItem pushes one quantity change and returns the server cart.
func (c *Client) UpdateCartItem(ctx context.Context, lineID uuid.UUID, quantity int) (*CartSnapshot, error) {
	var snapshot CartSnapshot
	payload := updateCartItemRequest{Quantity: quantity}
	path := fmt.Sprintf("/v1/cart/items/%s", lineID)
	if err := c.sendJSON(ctx, http.MethodPatch, path, payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// RemoveCartItem pushes one removal and returns the server cart.
func (c *Client) RemoveCartItem(ctx context.Context, lineID uuid.UUID) (*CartSnapshot, error) {
	var snapshot CartSnapshot
	path := fmt.Sprintf("/v1/cart/items/%s", lineID)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetListing loads a listing for price/availability snapshotting.
func (c *Client) GetListing(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	var listing Listing
	path := fmt.Sprintf("/v1/listings/%s", listingID)
	if err := c.getJSON(ctx, path, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}
