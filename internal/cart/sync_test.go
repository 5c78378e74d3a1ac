package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/remakery/storefront-backend/pkg/market"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func newTestCoalescer(upstream *stubUpstream, debounceMS int64, apply func(uuid.UUID, *market.CartSnapshot)) *coalescer {
	return newCoalescer(coalescerParams{
		upstream:    upstream,
		logg:        testLogger(),
		debounceMS:  debounceMS,
		timeoutMS:   1_000,
		applyResult: apply,
	})
}

func TestMergeMutationRules(t *testing.T) {
	t.Parallel()

	lineID := uuid.New()

	tests := []struct {
		name        string
		existing    mutation
		hasExisting bool
		next        mutation
		wantKept    bool
		wantKind    opKind
		wantQty     int
	}{
		{
			name:     "plain add",
			next:     mutation{kind: opAdd, quantity: 2},
			wantKept: true, wantKind: opAdd, wantQty: 2,
		},
		{
			name:     "update of a local-only line becomes an add",
			next:     mutation{kind: opUpdate, quantity: 3},
			wantKept: true, wantKind: opAdd, wantQty: 3,
		},
		{
			name:     "remove of a local-only line drops entirely",
			next:     mutation{kind: opRemove},
			wantKept: false,
		},
		{
			name:     "remove of a server-known line is kept",
			next:     mutation{kind: opRemove, lineID: lineID, serverKnown: true},
			wantKept: true, wantKind: opRemove,
		},
		{
			name:        "add then update keeps the add with the latest quantity",
			existing:    mutation{kind: opAdd, quantity: 1},
			hasExisting: true,
			next:        mutation{kind: opUpdate, quantity: 5},
			wantKept:    true, wantKind: opAdd, wantQty: 5,
		},
		{
			name:        "add then remove cancels out",
			existing:    mutation{kind: opAdd, quantity: 1},
			hasExisting: true,
			next:        mutation{kind: opRemove},
			wantKept:    false,
		},
		{
			name:        "update then remove becomes a remove",
			existing:    mutation{kind: opUpdate, lineID: lineID, quantity: 2},
			hasExisting: true,
			next:        mutation{kind: opRemove, lineID: lineID},
			wantKept:    true, wantKind: opRemove,
		},
		{
			name:        "remove then re-add becomes an update",
			existing:    mutation{kind: opRemove, lineID: lineID, serverKnown: true},
			hasExisting: true,
			next:        mutation{kind: opAdd, quantity: 4},
			wantKept:    true, wantKind: opUpdate, wantQty: 4,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			merged, kept := mergeMutation(tt.existing, tt.next, tt.hasExisting)
			if kept != tt.wantKept {
				t.Fatalf("kept = %v, want %v", kept, tt.wantKept)
			}
			if !kept {
				return
			}
			if merged.kind != tt.wantKind {
				t.Fatalf("kind = %d, want %d", merged.kind, tt.wantKind)
			}
			if tt.wantQty != 0 && merged.quantity != tt.wantQty {
				t.Fatalf("quantity = %d, want %d", merged.quantity, tt.wantQty)
			}
		})
	}
}

func TestCoalescerCollapsesRapidMutations(t *testing.T) {
	t.Parallel()

	upstream := &stubUpstream{snapshot: &market.CartSnapshot{}}
	c := newTestCoalescer(upstream, 20, nil)
	buyerID := uuid.New()
	listingID := uuid.New()

	for qty := 1; qty <= 5; qty++ {
		c.schedule(context.Background(), buyerID, mutation{kind: opAdd, listingID: listingID, quantity: qty})
	}

	waitFor(t, time.Second, func() bool {
		upstream.mu.Lock()
		defer upstream.mu.Unlock()
		return len(upstream.adds) > 0
	})

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if len(upstream.adds) != 1 {
		t.Fatalf("five rapid mutations must flush one upstream call, got %d", len(upstream.adds))
	}
	if upstream.adds[0].quantity != 5 {
		t.Fatalf("flush must carry the latest quantity, got %d", upstream.adds[0].quantity)
	}
}

func TestCoalescerAddThenRemoveNeverReachesUpstream(t *testing.T) {
	t.Parallel()

	upstream := &stubUpstream{snapshot: &market.CartSnapshot{}}
	c := newTestCoalescer(upstream, 10, nil)
	buyerID := uuid.New()
	listingID := uuid.New()

	c.schedule(context.Background(), buyerID, mutation{kind: opAdd, listingID: listingID, quantity: 1})
	c.schedule(context.Background(), buyerID, mutation{kind: opRemove, listingID: listingID})

	time.Sleep(100 * time.Millisecond)

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if len(upstream.adds)+len(upstream.removes) != 0 {
		t.Fatalf("cancelled pair must not hit upstream, adds=%d removes=%d", len(upstream.adds), len(upstream.removes))
	}
}

func TestCoalescerFlushesListingsInFirstTouchOrder(t *testing.T) {
	t.Parallel()

	upstream := &stubUpstream{snapshot: &market.CartSnapshot{}}
	c := newTestCoalescer(upstream, 20, nil)
	buyerID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	c.schedule(context.Background(), buyerID, mutation{kind: opAdd, listingID: first, quantity: 1})
	c.schedule(context.Background(), buyerID, mutation{kind: opAdd, listingID: second, quantity: 1})
	c.schedule(context.Background(), buyerID, mutation{kind: opUpdate, listingID: first, quantity: 2})

	waitFor(t, time.Second, func() bool {
		upstream.mu.Lock()
		defer upstream.mu.Unlock()
		return len(upstream.adds) == 2
	})

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if upstream.adds[0].listingID != first || upstream.adds[1].listingID != second {
		t.Fatal("flush order must follow first touch, not last touch")
	}
}

func TestCoalescerReconcilesFromServerOnFailure(t *testing.T) {
	t.Parallel()

	serverLine := market.CartLine{ID: uuid.New(), ListingID: uuid.New(), Quantity: 7, AvailableQuantity: 10}
	upstream := &stubUpstream{
		snapshot: &market.CartSnapshot{Items: []market.CartLine{serverLine}},
		pushErr:  errors.New("boom"),
	}

	applied := make(chan *market.CartSnapshot, 1)
	c := newTestCoalescer(upstream, 10, func(_ uuid.UUID, snapshot *market.CartSnapshot) {
		applied <- snapshot
	})

	c.schedule(context.Background(), uuid.New(), mutation{kind: opAdd, listingID: serverLine.ListingID, quantity: 1})

	select {
	case snapshot := <-applied:
		if len(snapshot.Items) != 1 || snapshot.Items[0].ID != serverLine.ID {
			t.Fatalf("failure must reconcile with the server cart, got %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("reconciliation never happened")
	}

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if upstream.fetches != 1 {
		t.Fatalf("expected one reconciling fetch, got %d", upstream.fetches)
	}
}

func TestCoalescerCancelDropsPendingBatch(t *testing.T) {
	t.Parallel()

	upstream := &stubUpstream{snapshot: &market.CartSnapshot{}}
	c := newTestCoalescer(upstream, 10, nil)
	buyerID := uuid.New()

	c.schedule(context.Background(), buyerID, mutation{kind: opAdd, listingID: uuid.New(), quantity: 1})
	c.cancel(buyerID)

	time.Sleep(100 * time.Millisecond)

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if len(upstream.adds) != 0 {
		t.Fatal("cancelled batch must not flush")
	}
}
