package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/remakery/storefront-backend/internal/cart"
	"github.com/remakery/storefront-backend/internal/checkout"
	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
	"github.com/remakery/storefront-backend/pkg/metrics"
)

type cartStore interface {
	Lines(buyerID uuid.UUID) []cart.LineItem
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type selectionStore interface {
	Load(ctx context.Context, buyerID uuid.UUID) (checkout.Selection, error)
	ClearCheckout(ctx context.Context, buyerID uuid.UUID) (checkout.Selection, error)
}

type orderCommitter interface {
	ProcessCheckout(ctx context.Context, req market.ProcessCheckoutRequest) (*market.Order, error)
}

// Service is the single boundary converting the cart and the checkout
// selection into one upstream order commit.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID) (*market.Order, error)
}

// ServiceParams groups dependencies for the placement service.
type ServiceParams struct {
	Cart          cartStore
	Checkout      selectionStore
	Orders        orderCommitter
	Logger        *logger.Logger
	Metrics       *metrics.CheckoutMetrics
	CommitTimeout time.Duration
}

type service struct {
	cart          cartStore
	checkout      selectionStore
	orders        orderCommitter
	logg          *logger.Logger
	metrics       *metrics.CheckoutMetrics
	commitTimeout time.Duration
	group         singleflight.Group
}

// NewService builds the order placement gateway.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.CommitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &service{
		cart:          params.Cart,
		checkout:      params.Checkout,
		orders:        params.Orders,
		logg:          params.Logger,
		metrics:       params.Metrics,
		commitTimeout: timeout,
	}, nil
}

// PlaceOrder issues exactly one commit per user action. Concurrent calls for
// the same buyer coalesce into the in-flight commit instead of producing a
// second order. The request body never carries line items: the order service
// re-reads the authoritative cart.
func (s *service) PlaceOrder(ctx context.Context, buyerID uuid.UUID) (*market.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	sel, err := s.checkout.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	// The sequencer already gates the confirmation step; the check repeats
	// here because this operation is reachable without UI navigation.
	if !sel.AddressComplete() || !sel.PaymentComplete() {
		return nil, pkgerrors.New(pkgerrors.CodeIncompleteCheckout, "address and payment must be selected").
			WithDetails(map[string]any{"redirect_step": checkout.StepAddress.String()})
	}
	if len(s.cart.Lines(buyerID)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	shippingMethodID := ""
	if sel.ShippingMethod != nil {
		shippingMethodID = sel.ShippingMethod.ID
	}
	req := market.ProcessCheckoutRequest{
		PaymentToken:      sel.PaymentToken(),
		ShippingAddressID: *sel.AddressID,
		ShippingMethodID:  shippingMethodID,
	}

	value, err, _ := s.group.Do(buyerID.String(), func() (any, error) {
		return s.commit(ctx, buyerID, req)
	})
	if err != nil {
		return nil, err
	}
	order, ok := value.(*market.Order)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected commit result")
	}
	return order, nil
}

func (s *service) commit(ctx context.Context, buyerID uuid.UUID, req market.ProcessCheckoutRequest) (*market.Order, error) {
	// Navigating away must not cancel an already-issued commit; only the
	// timeout bounds it, after which the gate releases for a retry.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()

	start := time.Now()
	order, err := s.orders.ProcessCheckout(commitCtx, req)
	s.metrics.ObserveCommitDuration(time.Since(start))
	if err != nil {
		// Leave the cart and selection untouched so the user can retry.
		s.metrics.IncCommitFailure()
		if typed := pkgerrors.As(err); typed != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeOrderPlacement, err, typed.Message())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderPlacement, err, "order commit failed")
	}
	s.metrics.IncCommitSuccess()

	if cleanupErr := s.cleanup(commitCtx, buyerID); cleanupErr != nil {
		// The order is committed; stale local state is an inconvenience,
		// not a failure.
		s.logg.Error(commitCtx, "placement.cleanup_failed", cleanupErr)
	}

	logCtx := s.logg.WithFields(commitCtx, map[string]any{
		"buyer_id": buyerID.String(),
		"order_id": order.ID.String(),
	})
	s.logg.Info(logCtx, "placement.committed")
	return order, nil
}

func (s *service) cleanup(ctx context.Context, buyerID uuid.UUID) error {
	var err error
	err = multierr.Append(err, s.cart.Clear(ctx, buyerID))
	if _, clearErr := s.checkout.ClearCheckout(ctx, buyerID); clearErr != nil {
		err = multierr.Append(err, clearErr)
	}
	return err
}
