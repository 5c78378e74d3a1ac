package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/remakery/storefront-backend/pkg/errors"
	"github.com/remakery/storefront-backend/pkg/logger"
	pkgredis "github.com/remakery/storefront-backend/pkg/redis"
)

// Abandoned checkouts expire after this window; a committed order clears the
// blob explicitly long before.
const selectionTTL = 30 * 24 * time.Hour

// Storage is the durable key-value surface the selection persists through.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutStorageKey(buyerID string) string
}

// Store persists the per-buyer checkout selection across reloads. Writes are
// last-write-wins: concurrent tabs may race, but the durable blob is a
// convenience store, not the ledger of record.
type Store struct {
	kv   Storage
	logg *logger.Logger
}

// NewStore builds the persisted checkout state store.
func NewStore(kv Storage, logg *logger.Logger) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("checkout storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{kv: kv, logg: logg}, nil
}

// Load hydrates the buyer's selection; a missing key yields an empty one.
func (s *Store) Load(ctx context.Context, buyerID uuid.UUID) (Selection, error) {
	if buyerID == uuid.Nil {
		return Selection{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	raw, err := s.kv.Get(ctx, s.kv.CheckoutStorageKey(buyerID.String()))
	if err != nil {
		if errors.Is(err, pkgredis.ErrKeyMissing) {
			return Selection{Version: schemaVersion}, nil
		}
		return Selection{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout state")
	}

	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		// A corrupt blob must not wedge the checkout; start over.
		s.logg.Warn(s.logg.WithField(ctx, "buyer_id", buyerID.String()), "checkout.state.corrupt")
		return Selection{Version: schemaVersion}, nil
	}
	if sel.Version == 0 {
		sel.Version = schemaVersion
	}
	return sel, nil
}

func (s *Store) save(ctx context.Context, buyerID uuid.UUID, sel Selection) error {
	sel.Version = schemaVersion
	data, err := json.Marshal(sel)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout state")
	}
	key := s.kv.CheckoutStorageKey(buyerID.String())
	if err := s.kv.Set(ctx, key, string(data), selectionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout state")
	}
	return nil
}

// SetAddress records the shipping address reference. No validation happens
// at set time; the sequencer gates on completeness.
func (s *Store) SetAddress(ctx context.Context, buyerID, addressID uuid.UUID) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	if addressID == uuid.Nil {
		sel.AddressID = nil
	} else {
		sel.AddressID = &addressID
	}
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// SetShippingMethod records the chosen delivery option.
func (s *Store) SetShippingMethod(ctx context.Context, buyerID uuid.UUID, method ShippingMethod) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	if method.ID == "" {
		sel.ShippingMethod = nil
	} else {
		sel.ShippingMethod = &method
	}
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// SetPaymentMethod records either a stored instrument id or the alternate
// payment sentinel.
func (s *Store) SetPaymentMethod(ctx context.Context, buyerID uuid.UUID, ref string) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	if ref == "" {
		sel.PaymentMethod = nil
	} else {
		sel.PaymentMethod = &ref
	}
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// SetSavedCard vaults the reusable card descriptor.
func (s *Store) SetSavedCard(ctx context.Context, buyerID uuid.UUID, card SavedCard) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	sel.SavedCard = &card
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// ClearSavedCard removes the stored card. When the current payment selection
// references that card, the selection is cleared with it.
func (s *Store) ClearSavedCard(ctx context.Context, buyerID uuid.UUID) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	if sel.SavedCard != nil && sel.PaymentMethod != nil && *sel.PaymentMethod == sel.SavedCard.ID {
		sel.PaymentMethod = nil
	}
	sel.SavedCard = nil
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// ClearCheckout resets the address, shipping, and payment selections after a
// committed order. The saved card deliberately survives: it is reusable for
// future orders.
func (s *Store) ClearCheckout(ctx context.Context, buyerID uuid.UUID) (Selection, error) {
	sel, err := s.Load(ctx, buyerID)
	if err != nil {
		return Selection{}, err
	}
	sel.AddressID = nil
	sel.ShippingMethod = nil
	sel.PaymentMethod = nil
	if err := s.save(ctx, buyerID, sel); err != nil {
		return Selection{}, err
	}
	return sel, nil
}
