package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

// ListForSale puts the caller's NFT on the market.  A nil price uses the
// configured default list price; the stored price is formatted "%.2f".
func (s *CatalogService) ListForSale(ctx context.Context, nftID, callerID uint64, price *float64) (model.NFT, error) {
	cents := s.Cfg.DefaultListPriceCents
	if price != nil {
		cents = model.CentsFromFloat(*price)
	}
	if cents <= 0 {
		return model.NFT{}, ErrInvalidPrice
	}

	var n model.NFT
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if n, err = s.lockOwned(ctx, tx, nftID, callerID); err != nil {
			return err
		}
		n.ForSale = true
		n.Price = model.FormatCents(cents)
		return s.NFTRepo.UpdateSaleTx(ctx, tx, n.ID, true, n.Price)
	})
	if err != nil {
		return model.NFT{}, err
	}
	return n, nil
}

// CancelSale withdraws the caller's NFT from the market.  Cancelling an
// unlisted NFT succeeds without a write; the price is left as is.
func (s *CatalogService) CancelSale(ctx context.Context, nftID, callerID uint64) (model.NFT, error) {
	var n model.NFT
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if n, err = s.lockOwned(ctx, tx, nftID, callerID); err != nil {
			return err
		}
		if !n.ForSale {
			return nil
		}
		n.ForSale = false
		return s.NFTRepo.UpdateSaleTx(ctx, tx, n.ID, false, n.Price)
	})
	if err != nil {
		return model.NFT{}, err
	}
	return n, nil
}

// Commission is the treasury share of a sale, rounded half up.
func Commission(priceCents, basisPoints int64) int64 {
	if priceCents <= 0 || basisPoints <= 0 {
		return 0
	}
	return (priceCents*basisPoints + 5000) / 10000
}

// Buy settles a sale.  The buyer's fiat card pays the full price; the
// treasury keeps the commission and the seller receives the rest.  The
// NFT changes owner, leaves the market and gets a "sale" transfer record
// carrying the price it sold for.
func (s *CatalogService) Buy(ctx context.Context, nftID, buyerID uint64) (model.NFT, error) {
	var (
		n        model.NFT
		sellerID uint64
		paid     string
	)
	now := s.now()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if n, err = s.NFTRepo.GetForUpdateTx(ctx, tx, nftID); err != nil {
			return err
		}
		if !n.ForSale {
			return ErrNotForSale
		}
		if n.OwnerID == buyerID {
			return ErrOwnNFT
		}
		price, err := model.ParseCents(n.Price)
		if err != nil || price <= 0 {
			return ErrInvalidPrice
		}
		sellerID = n.OwnerID

		treasury, err := s.treasury(ctx, tx)
		if err != nil {
			return err
		}
		cards, err := s.CardRepo.FiatCardsForUpdateTx(ctx, tx, []uint64{buyerID, sellerID, treasury.ID})
		if err != nil {
			return err
		}
		buyer, ok := cards[buyerID]
		if !ok {
			return ErrNoFiatCard
		}
		if buyer.BalanceCents < price {
			return ErrInsufficientFunds
		}
		bank, ok := cards[treasury.ID]
		if !ok {
			return ErrTreasuryMissing
		}
		seller, ok := cards[sellerID]
		if !ok {
			return ErrSellerCardMissing
		}

		fee := Commission(price, s.Cfg.CommissionBasisPoints)
		proceeds := price - fee

		if err := s.CardRepo.AdjustBalanceTx(ctx, tx, buyer.ID, -price); err != nil {
			return err
		}
		if err := s.CardRepo.AdjustBalanceTx(ctx, tx, seller.ID, proceeds); err != nil {
			return err
		}
		if err := s.CardRepo.RecordTransactionTx(ctx, tx, model.Transaction{
			FromCardID:     buyer.ID,
			ToCardID:       seller.ID,
			AmountCents:    proceeds,
			Type:           model.TxNFTPurchase,
			Description:    "NFT purchase: " + n.Name,
			FromCardNumber: buyer.Number,
			ToCardNumber:   seller.Number,
		}); err != nil {
			return err
		}
		if fee > 0 {
			if err := s.CardRepo.AdjustBalanceTx(ctx, tx, bank.ID, fee); err != nil {
				return err
			}
			if err := s.CardRepo.RecordTransactionTx(ctx, tx, model.Transaction{
				FromCardID:     buyer.ID,
				ToCardID:       bank.ID,
				AmountCents:    fee,
				Type:           model.TxNFTCommission,
				Description:    "NFT sale commission: " + n.Name,
				FromCardNumber: buyer.Number,
				ToCardNumber:   bank.Number,
			}); err != nil {
				return err
			}
		}

		paid = model.FormatCents(price)
		if err := s.NFTRepo.TransferTx(ctx, tx, n.ID, buyerID, "0"); err != nil {
			return err
		}
		if err := s.TransferRepo.CreateTx(ctx, tx, &model.NFTTransfer{
			NFTID:         n.ID,
			FromUserID:    sellerID,
			ToUserID:      buyerID,
			TransferType:  model.TransferSale,
			Price:         paid,
			TransferredAt: now,
		}); err != nil {
			return err
		}
		n.OwnerID = buyerID
		n.ForSale = false
		n.Price = "0"
		return nil
	})
	if err != nil {
		return model.NFT{}, err
	}
	s.Log.Infow("nft sold", "nft_id", n.ID, "seller_id", sellerID, "buyer_id", buyerID, "price", paid)
	s.publish(ctx, n, model.TransferSale, sellerID, buyerID, paid, now)
	return n, nil
}

// Gift hands the caller's unlisted NFT to another user by username.
func (s *CatalogService) Gift(ctx context.Context, nftID, fromID uint64, recipientUsername string) (model.NFT, error) {
	var n model.NFT
	now := s.now()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		recipient, err := s.UserRepo.GetByUsernameTx(ctx, tx, recipientUsername)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecipientNotFound
		}
		if err != nil {
			return err
		}
		if recipient.ID == fromID {
			return ErrSelfGift
		}
		if n, err = s.lockOwned(ctx, tx, nftID, fromID); err != nil {
			return err
		}
		if n.ForSale {
			return ErrListedGift
		}
		if err := s.NFTRepo.TransferTx(ctx, tx, n.ID, recipient.ID, n.Price); err != nil {
			return err
		}
		if err := s.TransferRepo.CreateTx(ctx, tx, &model.NFTTransfer{
			NFTID:         n.ID,
			FromUserID:    fromID,
			ToUserID:      recipient.ID,
			TransferType:  model.TransferGift,
			Price:         "0",
			TransferredAt: now,
		}); err != nil {
			return err
		}
		n.OwnerID = recipient.ID
		n.ForSale = false
		return nil
	})
	if err != nil {
		return model.NFT{}, err
	}
	s.Log.Infow("nft gifted", "nft_id", n.ID, "from_id", fromID, "to_id", n.OwnerID)
	s.publish(ctx, n, model.TransferGift, fromID, n.OwnerID, "0", now)
	return n, nil
}
