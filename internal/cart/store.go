package cart

import (
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/market"
)

// store holds per-buyer cart state in memory. Lines that came from a server
// snapshot keep their upstream ids; locally created lines get fresh ids until
// the next reconciliation replaces them.
type store struct {
	mu     sync.RWMutex
	buyers map[uuid.UUID]*buyerCart
}

type buyerCart struct {
	lines       []LineItem
	serverKnown map[uuid.UUID]struct{}
}

func newStore() *store {
	return &store{buyers: map[uuid.UUID]*buyerCart{}}
}

func (s *store) cartFor(buyerID uuid.UUID) *buyerCart {
	cart, ok := s.buyers[buyerID]
	if !ok {
		cart = &buyerCart{serverKnown: map[uuid.UUID]struct{}{}}
		s.buyers[buyerID] = cart
	}
	return cart
}

// merge adds the listing to the cart or increments the existing line,
// clamping to available stock. It reports the server line id (Nil when the
// line is local-only) and whether a new line was created.
func (s *store) merge(buyerID uuid.UUID, listing *market.Listing, quantity int) (AddResult, uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartFor(buyerID)
	for i := range cart.lines {
		if cart.lines[i].ListingID != listing.ID {
			continue
		}
		line := &cart.lines[i]
		line.AvailableQuantity = listing.AvailableQuantity
		requested := line.Quantity + quantity
		clamped := false
		if requested > line.AvailableQuantity {
			requested = line.AvailableQuantity
			clamped = true
		}
		line.Quantity = requested

		serverID := uuid.Nil
		if _, known := cart.serverKnown[line.ID]; known {
			serverID = line.ID
		}
		return AddResult{Line: *line, Clamped: clamped}, serverID, false
	}

	requested := quantity
	clamped := false
	if requested > listing.AvailableQuantity {
		requested = listing.AvailableQuantity
		clamped = true
	}
	line := LineItem{
		ID:                uuid.New(),
		ListingID:         listing.ID,
		Title:             listing.Title,
		Unit:              listing.Unit,
		UnitPrice:         listing.UnitPrice,
		Quantity:          requested,
		AvailableQuantity: listing.AvailableQuantity,
	}
	cart.lines = append(cart.lines, line)
	return AddResult{Line: line, Clamped: clamped}, uuid.Nil, true
}

// setQuantity replaces a line's quantity, rejecting values outside
// [1, available]. It reports whether the line is server-known.
func (s *store) setQuantity(buyerID, lineID uuid.UUID, quantity int) (*LineItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.buyers[buyerID]
	if !ok {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	for i := range cart.lines {
		if cart.lines[i].ID != lineID {
			continue
		}
		line := &cart.lines[i]
		if quantity > line.AvailableQuantity {
			return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
				WithDetails(map[string]any{"available_quantity": line.AvailableQuantity})
		}
		line.Quantity = quantity
		copied := *line
		_, known := cart.serverKnown[lineID]
		return &copied, known, nil
	}
	return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// remove deletes the line if present, reporting whether it existed and
// whether the upstream cart knows it.
func (s *store) remove(buyerID, lineID uuid.UUID) (bool, bool, uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.buyers[buyerID]
	if !ok {
		return false, false, uuid.Nil
	}
	for i := range cart.lines {
		if cart.lines[i].ID != lineID {
			continue
		}
		listingID := cart.lines[i].ListingID
		_, known := cart.serverKnown[lineID]
		cart.lines = append(cart.lines[:i], cart.lines[i+1:]...)
		delete(cart.serverKnown, lineID)
		return true, known, listingID
	}
	return false, false, uuid.Nil
}

func (s *store) clear(buyerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buyers, buyerID)
}

// replace swaps local state for the server-authoritative snapshot.
func (s *store) replace(buyerID uuid.UUID, items []market.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := &buyerCart{serverKnown: make(map[uuid.UUID]struct{}, len(items))}
	cart.lines = make([]LineItem, 0, len(items))
	for _, item := range items {
		cart.lines = append(cart.lines, LineItem{
			ID:                item.ID,
			ListingID:         item.ListingID,
			Title:             item.Title,
			Unit:              item.Unit,
			UnitPrice:         item.UnitPrice,
			Quantity:          item.Quantity,
			AvailableQuantity: item.AvailableQuantity,
		})
		cart.serverKnown[item.ID] = struct{}{}
	}
	s.buyers[buyerID] = cart
}

func (s *store) lines(buyerID uuid.UUID) []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.buyers[buyerID]
	if !ok {
		return nil
	}
	copied := make([]LineItem, len(cart.lines))
	copy(copied, cart.lines)
	return copied
}
