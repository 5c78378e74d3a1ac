package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
	"github.com/remakery/storefront-backend/pkg/metrics"
)

type listingLoader interface {
	GetListing(ctx context.Context, listingID uuid.UUID) (*market.Listing, error)
}

type cartUpstream interface {
	FetchCart(ctx context.Context) (*market.CartSnapshot, error)
	AddCartItem(ctx context.Context, listingID uuid.UUID, quantity int) (*market.CartSnapshot, error)
	UpdateCartItem(ctx context.Context, lineID uuid.UUID, quantity int) (*market.CartSnapshot, error)
	RemoveCartItem(ctx context.Context, lineID uuid.UUID) (*market.CartSnapshot, error)
}

// Service maintains the authoritative list of intended purchases per buyer.
// Mutations are optimistic: they apply locally first and are pushed upstream
// through a debounced coalescer; the server response is authoritative on
// reconciliation.
type Service interface {
	AddItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) (*AddResult, error)
	UpdateQuantity(ctx context.Context, buyerID, lineID uuid.UUID, quantity int) (*LineItem, error)
	RemoveItem(ctx context.Context, buyerID, lineID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
	Hydrate(ctx context.Context, buyerID uuid.UUID) ([]LineItem, error)
	Lines(buyerID uuid.UUID) []LineItem
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Market       cartUpstream
	Listings     listingLoader
	Logger       *logger.Logger
	Metrics      *metrics.CheckoutMetrics
	SyncDebounce int64 // milliseconds; see config.CartConfig
	SyncTimeout  int64 // milliseconds
}

type service struct {
	store     *store
	upstream  cartUpstream
	listings  listingLoader
	coalescer *coalescer
	logg      *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Market == nil {
		return nil, fmt.Errorf("market client required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	st := newStore()
	svc := &service{
		store:    st,
		upstream: params.Market,
		listings: params.Listings,
		logg:     params.Logger,
	}
	svc.coalescer = newCoalescer(coalescerParams{
		upstream:    params.Market,
		logg:        params.Logger,
		metrics:     params.Metrics,
		debounceMS:  params.SyncDebounce,
		timeoutMS:   params.SyncTimeout,
		applyResult: svc.applySnapshot,
	})
	return svc, nil
}

// AddItem merges a listing into the cart. Re-adding an existing listing
// increments its quantity; requests beyond the available stock are clamped
// silently and reported through AddResult.Clamped.
func (s *service) AddItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) (*AddResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.AvailableQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "listing has no available stock").
			WithDetails(map[string]any{"listing_id": listingID})
	}

	result, serverLineID, created := s.store.merge(buyerID, listing, quantity)
	if result.Clamped && s.logg != nil {
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"listing_id": listingID,
			"requested":  quantity,
			"clamped_to": result.Line.Quantity,
		})
		s.logg.Warn(warnCtx, "cart.add.clamped")
	}

	if created {
		s.coalescer.schedule(ctx, buyerID, mutation{
			kind:      opAdd,
			listingID: listingID,
			quantity:  result.Line.Quantity,
		})
	} else {
		s.coalescer.schedule(ctx, buyerID, mutation{
			kind:      opUpdate,
			listingID: listingID,
			lineID:    serverLineID,
			quantity:  result.Line.Quantity,
		})
	}
	return &result, nil
}

// UpdateQuantity replaces a line's quantity. Out-of-range values are
// rejected and the line is left unchanged.
func (s *service) UpdateQuantity(ctx context.Context, buyerID, lineID uuid.UUID, quantity int) (*LineItem, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	line, known, err := s.store.setQuantity(buyerID, lineID, quantity)
	if err != nil {
		return nil, err
	}

	op := mutation{kind: opUpdate, listingID: line.ListingID, quantity: quantity}
	if known {
		op.lineID = line.ID
	}
	s.coalescer.schedule(ctx, buyerID, op)
	return line, nil
}

// RemoveItem deletes the line unconditionally; removing an unknown id is a
// no-op.
func (s *service) RemoveItem(ctx context.Context, buyerID, lineID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	removed, known, listingID := s.store.remove(buyerID, lineID)
	if !removed {
		return nil
	}

	s.coalescer.schedule(ctx, buyerID, mutation{
		kind:        opRemove,
		listingID:   listingID,
		lineID:      lineID,
		serverKnown: known,
	})
	return nil
}

// Clear empties the collection locally and drops any pending sync. It runs
// exactly once, after a confirmed successful order placement; the upstream
// cart has already been converted by then.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	s.coalescer.cancel(buyerID)
	s.store.clear(buyerID)
	return nil
}

// Hydrate replaces local state with the server-authoritative cart.
func (s *service) Hydrate(ctx context.Context, buyerID uuid.UUID) ([]LineItem, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	snapshot, err := s.upstream.FetchCart(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch authoritative cart")
	}
	s.applySnapshot(buyerID, snapshot)
	return s.store.lines(buyerID), nil
}

// Lines returns a copy of the buyer's current lines.
func (s *service) Lines(buyerID uuid.UUID) []LineItem {
	return s.store.lines(buyerID)
}

func (s *service) applySnapshot(buyerID uuid.UUID, snapshot *market.CartSnapshot) {
	if snapshot == nil {
		return
	}
	s.store.replace(buyerID, snapshot.Items)
}
