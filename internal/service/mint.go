package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/metrics"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

// MintInput describes a new NFT.  An empty Rarity is rolled at random and
// an empty Kind means collection A.  PriceCents > 0 lists the NFT at once.
type MintInput struct {
	Rarity     string
	Kind       model.CollectionKind
	PriceCents int64
}

func (s *CatalogService) resolveRarity(raw string) (model.Rarity, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Gen.Rarity(), nil
	}
	r, err := model.ParseRarity(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRarity, raw)
	}
	return r, nil
}

// Create mints an NFT for ownerID without charging a fee.
func (s *CatalogService) Create(ctx context.Context, ownerID uint64, in MintInput) (model.NFT, error) {
	rarity, err := s.resolveRarity(in.Rarity)
	if err != nil {
		return model.NFT{}, err
	}
	if in.PriceCents < 0 {
		return model.NFT{}, ErrInvalidPrice
	}
	used, err := s.NFTRepo.UsedImagePaths(ctx)
	if err != nil {
		return model.NFT{}, err
	}

	var n model.NFT
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = s.mintTx(ctx, tx, ownerID, rarity, in.Kind, in.PriceCents, used)
		return err
	})
	if err != nil {
		return model.NFT{}, err
	}
	s.Log.Infow("nft created", "nft_id", n.ID, "owner_id", ownerID, "rarity", n.Rarity, "kind", n.CollectionKind)
	metrics.RecordMint(string(n.CollectionKind), false)
	return n, nil
}

// Generate mints an NFT and charges the creation fee from the caller's
// fiat card to the treasury in the same transaction.  The optional daily
// limit is enforced against the caller's locked user row.
func (s *CatalogService) Generate(ctx context.Context, userID uint64, in MintInput) (model.NFT, error) {
	rarity, err := s.resolveRarity(in.Rarity)
	if err != nil {
		return model.NFT{}, err
	}
	used, err := s.NFTRepo.UsedImagePaths(ctx)
	if err != nil {
		return model.NFT{}, err
	}

	var n model.NFT
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		user, err := s.UserRepo.GetByIDForUpdateTx(ctx, tx, userID)
		if err != nil {
			return userLookup(err)
		}
		now := s.now()
		count := generationsToday(user, now)
		if s.Cfg.DailyLimit > 0 && count >= s.Cfg.DailyLimit {
			return ErrDailyLimit
		}

		if cost := s.Cfg.CreationCostCents; cost > 0 {
			if err := s.chargeFeeTx(ctx, tx, userID, cost); err != nil {
				return err
			}
		}

		n, err = s.mintTx(ctx, tx, userID, rarity, in.Kind, 0, used)
		if err != nil {
			return err
		}
		return s.UserRepo.RecordGenerationTx(ctx, tx, userID, now, count+1)
	})
	if err != nil {
		return model.NFT{}, err
	}
	s.Log.Infow("nft generated", "nft_id", n.ID, "owner_id", userID, "rarity", n.Rarity, "fee", s.Cfg.CreationCostCents)
	metrics.RecordMint(string(n.CollectionKind), s.Cfg.CreationCostCents > 0)
	return n, nil
}

// DailyLimitStatus tells a client whether it may generate now.
type DailyLimitStatus struct {
	CanGenerate bool   `json:"canGenerate"`
	Message     string `json:"message"`
	Remaining   int    `json:"remaining"`
}

// DailyLimit reports the caller's remaining generations for the current
// UTC day.  Remaining is -1 when there is no limit.
func (s *CatalogService) DailyLimit(ctx context.Context, userID uint64) (DailyLimitStatus, error) {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return DailyLimitStatus{}, userLookup(err)
	}
	if s.Cfg.DailyLimit <= 0 {
		return DailyLimitStatus{CanGenerate: true, Message: "No daily limit", Remaining: -1}, nil
	}
	left := s.Cfg.DailyLimit - generationsToday(user, s.now())
	if left <= 0 {
		return DailyLimitStatus{CanGenerate: false, Message: "Daily limit reached, try again tomorrow"}, nil
	}
	return DailyLimitStatus{
		CanGenerate: true,
		Message:     fmt.Sprintf("You can generate %d more NFT(s) today", left),
		Remaining:   left,
	}, nil
}

// userLookup reports a missing caller row as ErrUserNotFound rather than
// the generic repository miss.
func userLookup(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// generationsToday is the stored counter when the last generation was on
// the same UTC day as now, else zero.
func generationsToday(u model.User, now time.Time) int {
	if u.LastNFTGeneration == nil {
		return 0
	}
	y1, m1, d1 := u.LastNFTGeneration.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return 0
	}
	return u.NFTGenerationCount
}

// chargeFeeTx moves cost cents from the user's fiat card to the treasury.
func (s *CatalogService) chargeFeeTx(ctx context.Context, tx *sql.Tx, userID uint64, cost int64) error {
	treasury, err := s.treasury(ctx, tx)
	if err != nil {
		return err
	}
	cards, err := s.CardRepo.FiatCardsForUpdateTx(ctx, tx, []uint64{userID, treasury.ID})
	if err != nil {
		return err
	}
	payer, ok := cards[userID]
	if !ok {
		return ErrNoFiatCard
	}
	bank, ok := cards[treasury.ID]
	if !ok {
		return ErrTreasuryMissing
	}
	if payer.BalanceCents < cost {
		return ErrInsufficientFunds
	}
	if payer.ID == bank.ID {
		return nil
	}
	if err := s.CardRepo.AdjustBalanceTx(ctx, tx, payer.ID, -cost); err != nil {
		return err
	}
	if err := s.CardRepo.AdjustBalanceTx(ctx, tx, bank.ID, cost); err != nil {
		return err
	}
	return s.CardRepo.RecordTransactionTx(ctx, tx, model.Transaction{
		FromCardID:     payer.ID,
		ToCardID:       bank.ID,
		AmountCents:    cost,
		Type:           model.TxNFTFee,
		Description:    "NFT creation fee",
		FromCardNumber: payer.Number,
		ToCardNumber:   bank.Number,
	})
}

// mintTx rolls and stores one NFT inside tx.
func (s *CatalogService) mintTx(ctx context.Context, tx *sql.Tx, ownerID uint64, rarity model.Rarity,
	kind model.CollectionKind, priceCents int64, used map[string]struct{}) (model.NFT, error) {
	if kind == model.KindNone {
		kind = model.KindA
	}
	colID, err := s.CollectionRepo.EnsureForUserTx(ctx, tx, ownerID, kind.DisplayName(),
		"Personal "+kind.DisplayName()+" collection")
	if err != nil {
		return model.NFT{}, err
	}
	image := s.Images.Pick(rarity, kind, used)
	n := model.NFT{
		CollectionID:      colID,
		OwnerID:           ownerID,
		Name:              s.Gen.Name(rarity, kind),
		Description:       s.Gen.Description(rarity, kind),
		ImagePath:         image,
		OriginalImagePath: image,
		Attributes:        s.Gen.Attributes(rarity),
		Rarity:            rarity,
		Price:             model.FormatCents(priceCents),
		ForSale:           priceCents > 0,
		MintedAt:          s.now(),
		TokenID:           s.Gen.TokenID(),
		CollectionKind:    kind,
	}
	if err := s.NFTRepo.CreateTx(ctx, tx, &n); err != nil {
		return model.NFT{}, fmt.Errorf("store nft: %w", err)
	}
	return n, nil
}
