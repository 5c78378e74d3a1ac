package checkout

type setAddressRequest struct {
	AddressID string `json:"address_id" validate:"required,uuid"`
}

type setShippingRequest struct {
	ID      string `json:"id" validate:"required"`
	Label   string `json:"label" validate:"required"`
	Carrier string `json:"carrier"`
}

type setPaymentRequest struct {
	// Either a stored card id or the literal "alternate".
	Method string `json:"method" validate:"required"`
}

type saveCardRequest struct {
	CardID   string `json:"card_id" validate:"required"`
	LastFour string `json:"last_four" validate:"required,len=4,numeric"`
}
