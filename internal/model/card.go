package model

import "time"

// Card types.  Fiat cards settle NFT fees and sales; crypto cards carry
// the generated BTC/ETH addresses.
const (
	CardTypeFiat   = "fiat"
	CardTypeCrypto = "crypto"
)

// Card represents a virtual card in the `cards` table.  Balances are kept
// in integer minor units in Go (cents for fiat) and DECIMAL columns in
// MySQL.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owning user.
//  Type         – fiat or crypto.
//  Currency     – USD, UAH or CRYPTO.
//  Number       – 16 digit card number.
//  Expiry       – MM/YY.
//  CVV          – three digit code.
//  BalanceCents – fiat balance in cents.
//  BTCBalance   – BTC balance as a decimal string.
//  ETHBalance   – ETH balance as a decimal string.
//  BTCAddress   – generated BTC address (crypto cards only).
//  ETHAddress   – generated ETH address (crypto cards only).
//  TONAddress   – optional TON address.
type Card struct {
	ID           uint64  `json:"id"`
	UserID       uint64  `json:"userId"`
	Type         string  `json:"type"`
	Currency     string  `json:"currency"`
	Number       string  `json:"number"`
	Expiry       string  `json:"expiry"`
	CVV          string  `json:"-"`
	BalanceCents int64   `json:"balanceCents"`
	BTCBalance   string  `json:"btcBalance"`
	ETHBalance   string  `json:"ethBalance"`
	BTCAddress   *string `json:"btcAddress"`
	ETHAddress   *string `json:"ethAddress"`
	TONAddress   *string `json:"tonAddress"`
}

// Transaction is one money movement between cards, recorded for fees and
// NFT sales.
type Transaction struct {
	ID             uint64
	FromCardID     uint64
	ToCardID       uint64
	AmountCents    int64
	Type           string
	Status         string
	Description    string
	FromCardNumber string
	ToCardNumber   string
	CreatedAt      time.Time
}

// Transaction types written by the NFT flows.
const (
	TxNFTPurchase   = "nft_purchase"
	TxNFTCommission = "nft_commission"
	TxNFTFee        = "nft_creation_fee"
)
