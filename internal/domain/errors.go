package domain

import "errors"

var (
	ErrAuthRejected       = errors.New("credentials or guard code rejected")
	ErrNoSession          = errors.New("no live session")
	ErrInvalidTradeURL    = errors.New("invalid trade offer url")
	ErrInventoryPartial   = errors.New("inventory page carries assets without descriptions")
	ErrOfferIDMissing     = errors.New("offer response missing trade offer id")
	ErrConfirmationFailed = errors.New("could not confirm trade offer")
)
