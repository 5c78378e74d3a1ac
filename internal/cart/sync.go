package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
	"github.com/remakery/storefront-backend/pkg/metrics"
)

type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opRemove
)

// mutation is one recorded cart change, keyed by listing so rapid clicks on
// the same line collapse into a single upstream write.
type mutation struct {
	kind        opKind
	listingID   uuid.UUID
	lineID      uuid.UUID // upstream line id; Nil while the line is local-only
	quantity    int
	serverKnown bool
}

// coalescer debounces upstream cart synchronization. Every local mutation is
// merged into a per-buyer batch; the batch flushes once the buyer pauses,
// issuing at most one upstream write per touched listing, in first-touch
// order. Without this, rapid clicking produces request storms and
// out-of-order writes upstream.
type coalescer struct {
	upstream    cartUpstream
	logg        *logger.Logger
	metrics     *metrics.CheckoutMetrics
	debounce    time.Duration
	timeout     time.Duration
	applyResult func(buyerID uuid.UUID, snapshot *market.CartSnapshot)

	mu      sync.Mutex
	batches map[uuid.UUID]*batch
}

type batch struct {
	ctx   context.Context
	timer *time.Timer
	order []uuid.UUID
	ops   map[uuid.UUID]mutation
}

type coalescerParams struct {
	upstream    cartUpstream
	logg        *logger.Logger
	metrics     *metrics.CheckoutMetrics
	debounceMS  int64
	timeoutMS   int64
	applyResult func(buyerID uuid.UUID, snapshot *market.CartSnapshot)
}

func newCoalescer(params coalescerParams) *coalescer {
	debounce := time.Duration(params.debounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	timeout := time.Duration(params.timeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &coalescer{
		upstream:    params.upstream,
		logg:        params.logg,
		metrics:     params.metrics,
		debounce:    debounce,
		timeout:     timeout,
		applyResult: params.applyResult,
		batches:     map[uuid.UUID]*batch{},
	}
}

// schedule merges the mutation into the buyer's pending batch and (re)arms
// the debounce timer. The context values survive the request: the flush runs
// after the handler returns.
func (c *coalescer) schedule(ctx context.Context, buyerID uuid.UUID, op mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.batches[buyerID]
	if !ok {
		b = &batch{ops: map[uuid.UUID]mutation{}}
		c.batches[buyerID] = b
	}
	b.ctx = context.WithoutCancel(ctx)

	existing, hasExisting := b.ops[op.listingID]
	merged, keep := mergeMutation(existing, op, hasExisting)
	if keep {
		if !hasExisting {
			b.order = append(b.order, op.listingID)
		}
		b.ops[op.listingID] = merged
	} else {
		delete(b.ops, op.listingID)
	}

	if len(b.ops) == 0 {
		if b.timer != nil {
			b.timer.Stop()
		}
		delete(c.batches, buyerID)
		return
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(c.debounce, func() { c.flush(buyerID) })
	} else {
		b.timer.Reset(c.debounce)
	}
}

// mergeMutation collapses a new mutation into the pending one for the same
// listing. Latest state wins; an add followed by a remove cancels out before
// it ever reaches the network.
func mergeMutation(existing, next mutation, hasExisting bool) (mutation, bool) {
	if !hasExisting {
		switch next.kind {
		case opRemove:
			if !next.serverKnown {
				return mutation{}, false
			}
			return next, true
		case opUpdate:
			if next.lineID == uuid.Nil {
				next.kind = opAdd
			}
			return next, true
		default:
			return next, true
		}
	}

	switch existing.kind {
	case opAdd:
		if next.kind == opRemove {
			return mutation{}, false
		}
		existing.quantity = next.quantity
		return existing, true
	case opUpdate:
		if next.kind == opRemove {
			existing.kind = opRemove
			existing.serverKnown = true
			return existing, true
		}
		existing.quantity = next.quantity
		return existing, true
	case opRemove:
		// Re-added before the removal flushed: the upstream line still
		// exists, so this becomes a plain quantity update.
		existing.kind = opUpdate
		existing.quantity = next.quantity
		return existing, true
	}
	return next, true
}

// cancel drops any pending batch, used after order placement cleared the
// local cart: flushing afterwards would resurrect lines upstream.
func (c *coalescer) cancel(buyerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.batches[buyerID]; ok {
		if b.timer != nil {
			b.timer.Stop()
		}
		delete(c.batches, buyerID)
	}
}

func (c *coalescer) flush(buyerID uuid.UUID) {
	c.mu.Lock()
	b, ok := c.batches[buyerID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.batches, buyerID)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(b.ctx, c.timeout)
	defer cancel()

	var snapshot *market.CartSnapshot
	var flushErr error
	for _, listingID := range b.order {
		op, ok := b.ops[listingID]
		if !ok {
			continue
		}
		snapshot, flushErr = c.push(ctx, op)
		if flushErr != nil {
			break
		}
	}

	if flushErr != nil {
		// Local state diverged from the server: trust the server.
		c.metrics.IncCartSync("failure")
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", flushErr.Error()), "cart.sync.failed")
		}
		authoritative, err := c.upstream.FetchCart(ctx)
		if err != nil {
			if c.logg != nil {
				c.logg.Error(ctx, "cart.sync.reconcile_failed", err)
			}
			return
		}
		snapshot = authoritative
	} else {
		c.metrics.IncCartSync("success")
	}

	if snapshot != nil && c.applyResult != nil {
		c.applyResult(buyerID, snapshot)
	}
}

func (c *coalescer) push(ctx context.Context, op mutation) (*market.CartSnapshot, error) {
	switch op.kind {
	case opAdd:
		return c.upstream.AddCartItem(ctx, op.listingID, op.quantity)
	case opUpdate:
		return c.upstream.UpdateCartItem(ctx, op.lineID, op.quantity)
	case opRemove:
		return c.upstream.RemoveCartItem(ctx, op.lineID)
	}
	return nil, nil
}
