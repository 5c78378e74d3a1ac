package cart

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
)

type stubUpstream struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*market.Listing
	snapshot *market.CartSnapshot
	fetchErr error
	pushErr  error

	adds    []mutation
	updates []mutation
	removes []mutation
	fetches int
}

func (s *stubUpstream) GetListing(ctx context.Context, listingID uuid.UUID) (*market.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

func (s *stubUpstream) FetchCart(ctx context.Context) (*market.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.snapshot == nil {
		return &market.CartSnapshot{}, nil
	}
	return s.snapshot, nil
}

func (s *stubUpstream) AddCartItem(ctx context.Context, listingID uuid.UUID, quantity int) (*market.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	s.adds = append(s.adds, mutation{listingID: listingID, quantity: quantity})
	return s.snapshot, nil
}

func (s *stubUpstream) UpdateCartItem(ctx context.Context, lineID uuid.UUID, quantity int) (*market.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	s.updates = append(s.updates, mutation{lineID: lineID, quantity: quantity})
	return s.snapshot, nil
}

func (s *stubUpstream) RemoveCartItem(ctx context.Context, lineID uuid.UUID) (*market.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	s.removes = append(s.removes, mutation{lineID: lineID})
	return s.snapshot, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testListing(available int) *market.Listing {
	return &market.Listing{
		ID:                uuid.New(),
		Title:             "Reclaimed oak plank",
		Unit:              "board",
		UnitPrice:         decimal.RequireFromString("45.50"),
		AvailableQuantity: available,
	}
}

// Debounce long enough that nothing flushes while the test asserts.
func newTestCartService(t *testing.T, upstream *stubUpstream) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Market:       upstream,
		Listings:     upstream,
		Logger:       testLogger(),
		SyncDebounce: 60_000,
		SyncTimeout:  1_000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestAddItemCreatesLine(t *testing.T) {
	t.Parallel()

	listing := testListing(10)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	result, err := svc.AddItem(context.Background(), buyerID, listing.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Clamped {
		t.Fatal("quantity within stock should not clamp")
	}
	if result.Line.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", result.Line.Quantity)
	}

	lines := svc.Lines(buyerID)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].ListingID != listing.ID {
		t.Fatal("line should reference the listing")
	}
}

func TestAddItemMergesExistingListing(t *testing.T) {
	t.Parallel()

	listing := testListing(10)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), buyerID, listing.ID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := svc.AddItem(context.Background(), buyerID, listing.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Line.Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", result.Line.Quantity)
	}
	if got := len(svc.Lines(buyerID)); got != 1 {
		t.Fatalf("re-adding the same listing must not create a second line, got %d", got)
	}
}

func TestAddItemClampsToAvailableStock(t *testing.T) {
	t.Parallel()

	listing := testListing(4)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	result, err := svc.AddItem(context.Background(), buyerID, listing.ID, 9)
	if err != nil {
		t.Fatalf("clamping should not be an error: %v", err)
	}
	if !result.Clamped {
		t.Fatal("expected the clamp to be reported")
	}
	if result.Line.Quantity != 4 {
		t.Fatalf("quantity = %d, want available 4", result.Line.Quantity)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	t.Parallel()

	listing := testListing(0)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)

	_, err := svc.AddItem(context.Background(), uuid.New(), listing.ID, 1)
	if err == nil {
		t.Fatal("expected out-of-stock error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestAddItemRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	listing := testListing(5)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)

	_, err := svc.AddItem(context.Background(), uuid.New(), listing.ID, 0)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestUpdateQuantityRejectsOverAvailable(t *testing.T) {
	t.Parallel()

	listing := testListing(5)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	result, err := svc.AddItem(context.Background(), buyerID, listing.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.UpdateQuantity(context.Background(), buyerID, result.Line.ID, 9)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}

	// The line must be untouched after a rejected update.
	lines := svc.Lines(buyerID)
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("rejected update must not change the line, got %+v", lines)
	}
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	t.Parallel()

	upstream := &stubUpstream{}
	svc := newTestCartService(t, upstream)

	_, err := svc.UpdateQuantity(context.Background(), uuid.New(), uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	listing := testListing(5)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	result, err := svc.AddItem(context.Background(), buyerID, listing.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RemoveItem(context.Background(), buyerID, result.Line.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveItem(context.Background(), buyerID, result.Line.ID); err != nil {
		t.Fatalf("second remove must be a no-op, got: %v", err)
	}
	if got := len(svc.Lines(buyerID)); got != 0 {
		t.Fatalf("expected empty cart, got %d lines", got)
	}
}

func TestHydrateReplacesLocalState(t *testing.T) {
	t.Parallel()

	listing := testListing(5)
	serverLine := market.CartLine{
		ID:                uuid.New(),
		ListingID:         uuid.New(),
		Title:             "Salvaged brick",
		UnitPrice:         decimal.RequireFromString("2.25"),
		Quantity:          40,
		AvailableQuantity: 100,
	}
	upstream := &stubUpstream{
		listings: map[uuid.UUID]*market.Listing{listing.ID: listing},
		snapshot: &market.CartSnapshot{Items: []market.CartLine{serverLine}},
	}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), buyerID, listing.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines, err := svc.Hydrate(context.Background(), buyerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].ID != serverLine.ID {
		t.Fatalf("hydrate must adopt the server snapshot, got %+v", lines)
	}
}

func TestClearEmptiesLocalCartOnly(t *testing.T) {
	t.Parallel()

	listing := testListing(5)
	upstream := &stubUpstream{listings: map[uuid.UUID]*market.Listing{listing.ID: listing}}
	svc := newTestCartService(t, upstream)
	buyerID := uuid.New()

	if _, err := svc.AddItem(context.Background(), buyerID, listing.ID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Clear(context.Background(), buyerID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(svc.Lines(buyerID)); got != 0 {
		t.Fatalf("expected empty cart, got %d lines", got)
	}

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	if len(upstream.removes) != 0 {
		t.Fatal("clear must not issue upstream removals")
	}
}
