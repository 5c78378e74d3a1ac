package checkout

import "github.com/google/uuid"

// PaymentAlternate is the sentinel payment reference for "pay with an
// alternate method" instead of a stored instrument.
const PaymentAlternate = "alternate"

// schemaVersion tags the serialized selection blob. Version 0 blobs predate
// the tag and are accepted as-is on read.
const schemaVersion = 1

// ShippingMethod is the chosen delivery option with its display metadata.
type ShippingMethod struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Carrier string `json:"carrier,omitempty"`
}

// SavedCard is the reusable stored payment instrument. It survives checkout
// completion and is dropped only by an explicit remove.
type SavedCard struct {
	ID       string `json:"id"`
	LastFour string `json:"last_four"`
}

// Selection is the in-progress, not-yet-committed set of address, shipping,
// and payment choices. It persists across reloads under the
// checkout-storage key; in-flight flags are never part of it.
type Selection struct {
	Version        int             `json:"version"`
	AddressID      *uuid.UUID      `json:"address_id,omitempty"`
	ShippingMethod *ShippingMethod `json:"shipping_method,omitempty"`
	PaymentMethod  *string         `json:"payment_method,omitempty"`
	SavedCard      *SavedCard      `json:"saved_card,omitempty"`
}

func (s Selection) AddressComplete() bool {
	return s.AddressID != nil && *s.AddressID != uuid.Nil
}

func (s Selection) ShippingComplete() bool {
	return s.ShippingMethod != nil && s.ShippingMethod.ID != ""
}

func (s Selection) PaymentComplete() bool {
	return s.PaymentMethod != nil && *s.PaymentMethod != ""
}

// PaymentToken resolves the reference submitted to the order service.
func (s Selection) PaymentToken() string {
	if s.PaymentMethod == nil {
		return ""
	}
	return *s.PaymentMethod
}
