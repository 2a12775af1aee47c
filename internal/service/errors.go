package service

import "errors"

// Business rule violations.  Handlers map them to 400 unless noted.
var (
	ErrNotForSale        = errors.New("nft is not for sale")
	ErrOwnNFT            = errors.New("cannot buy your own nft")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoFiatCard        = errors.New("no fiat card found")
	ErrSelfGift          = errors.New("cannot gift an nft to yourself")
	ErrListedGift        = errors.New("cannot gift an nft that is listed for sale")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidRarity     = errors.New("invalid rarity")
	ErrDailyLimit        = errors.New("daily nft generation limit reached")

	// ErrTreasuryMissing and ErrSellerCardMissing are configuration faults
	// (500): the sale cannot settle.
	ErrTreasuryMissing   = errors.New("treasury account or card not found")
	ErrSellerCardMissing = errors.New("seller fiat card not found")
)
