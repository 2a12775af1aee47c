package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/address"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

// AccountService provisions the bank side of a new user: one fiat card
// that settles NFT payments and one crypto card with generated addresses.
type AccountService struct {
	Cards                *repository.CardRepo
	Addresses            address.Generator
	StartingBalanceCents int64
	Log                  *logger.Logger
	Now                  func() time.Time
}

func NewAccountService(cards *repository.CardRepo, addrs address.Generator, startingBalance int64, log *logger.Logger) *AccountService {
	if log == nil {
		log = logger.Nop()
	}
	return &AccountService{Cards: cards, Addresses: addrs, StartingBalanceCents: startingBalance, Log: log}
}

// ProvisionTx creates both cards for userID inside tx.
func (a *AccountService) ProvisionTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.Card, error) {
	now := time.Now().UTC()
	if a.Now != nil {
		now = a.Now().UTC()
	}
	expiry := fmt.Sprintf("%02d/%02d", int(now.Month()), (now.Year()+4)%100)

	btc := a.Addresses.Generate(address.BTC, userID)
	eth := a.Addresses.Generate(address.ETH, userID)

	cards := []model.Card{
		{
			UserID:       userID,
			Type:         model.CardTypeFiat,
			Currency:     "USD",
			Number:       cardNumber("4"),
			Expiry:       expiry,
			CVV:          fmt.Sprintf("%03d", rand.IntN(1000)),
			BalanceCents: a.StartingBalanceCents,
		},
		{
			UserID:     userID,
			Type:       model.CardTypeCrypto,
			Currency:   "CRYPTO",
			Number:     cardNumber("5"),
			Expiry:     expiry,
			CVV:        fmt.Sprintf("%03d", rand.IntN(1000)),
			BTCAddress: &btc,
			ETHAddress: &eth,
		},
	}
	for i := range cards {
		if err := a.Cards.CreateTx(ctx, tx, &cards[i]); err != nil {
			return nil, fmt.Errorf("create %s card: %w", cards[i].Type, err)
		}
	}
	return cards, nil
}

// AddressRepair summarizes one pass over the crypto cards.
type AddressRepair struct {
	Checked  int
	Repaired int
}

// RepairAddresses regenerates the BTC/ETH address of every crypto card
// whose stored value is missing or fails validation.  With dryRun the
// cards are only counted.
func (a *AccountService) RepairAddresses(ctx context.Context, dryRun bool) (AddressRepair, error) {
	cards, err := a.Cards.ListByType(ctx, model.CardTypeCrypto)
	if err != nil {
		return AddressRepair{}, err
	}
	var rep AddressRepair
	for _, c := range cards {
		rep.Checked++
		btc, eth := deref(c.BTCAddress), deref(c.ETHAddress)
		btcOK := address.Validate(btc, address.BTC)
		ethOK := address.Validate(eth, address.ETH)
		if btcOK && ethOK {
			continue
		}
		if !btcOK {
			btc = a.Addresses.Generate(address.BTC, c.UserID)
		}
		if !ethOK {
			eth = a.Addresses.Generate(address.ETH, c.UserID)
		}
		rep.Repaired++
		a.Log.Infow("repair card addresses", "card_id", c.ID, "user_id", c.UserID, "btc_ok", btcOK, "eth_ok", ethOK, "dry_run", dryRun)
		if dryRun {
			continue
		}
		if err := a.Cards.UpdateAddresses(ctx, c.ID, btc, eth); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// cardNumber returns a 16 digit number starting with prefix.
func cardNumber(prefix string) string {
	n := prefix
	for len(n) < 16 {
		n += fmt.Sprint(rand.IntN(10))
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
