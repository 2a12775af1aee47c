// Package service implements the NFT catalog on top of the repositories.
// Every state change runs in one database transaction that locks the NFT
// row (and any card rows it touches) before re-checking ownership and
// listing state.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/config"
	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/metrics"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/queue"
	"github.com/iliyamo/nft-bank-marketplace/internal/repository"
)

// EventPublisher receives transfer events after commit.  A nil publisher
// disables events.
type EventPublisher interface {
	PublishTransferred(ctx context.Context, ev queue.NFTTransferredEvent) error
}

// CatalogService owns NFT minting, listing, trading and the read models
// built on top of them.
type CatalogService struct {
	DB             *sql.DB
	NFTRepo        *repository.NFTRepo
	UserRepo       *repository.UserRepo
	CardRepo       *repository.CardRepo
	CollectionRepo *repository.CollectionRepo
	TransferRepo   *repository.TransferRepo
	LegacyRepo     *repository.LegacyNFTRepo

	Cfg    config.NFTConfig
	Gen    catalog.Generator
	Images catalog.ImagePicker
	Events EventPublisher
	Log    *logger.Logger
	Now    func() time.Time
}

// NewCatalogService wires the repositories around db.
func NewCatalogService(db *sql.DB, cfg config.NFTConfig, images catalog.ImagePicker, events EventPublisher, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogService{
		DB:             db,
		NFTRepo:        repository.NewNFTRepo(db),
		UserRepo:       repository.NewUserRepo(db),
		CardRepo:       repository.NewCardRepo(db),
		CollectionRepo: repository.NewCollectionRepo(db),
		TransferRepo:   repository.NewTransferRepo(db),
		LegacyRepo:     repository.NewLegacyNFTRepo(db),
		Cfg:            cfg,
		Images:         images,
		Events:         events,
		Log:            log,
	}
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// inTx runs fn in a transaction and commits when fn returns nil.
func (s *CatalogService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UserNFTs returns every NFT the user owns.  No collection filter is
// applied here.
func (s *CatalogService) UserNFTs(ctx context.Context, userID uint64) ([]model.NFT, error) {
	return s.NFTRepo.ListByOwner(ctx, userID)
}

// NFTsForSale returns every listed NFT except those of excludeUserID
// (0 excludes nobody).
func (s *CatalogService) NFTsForSale(ctx context.Context, excludeUserID uint64) ([]model.NFT, error) {
	return s.NFTRepo.ListForSale(ctx, excludeUserID)
}

// History returns the transfer trail of one NFT, oldest first.
func (s *CatalogService) History(ctx context.Context, nftID uint64) ([]model.NFTTransfer, error) {
	if _, err := s.NFTRepo.GetByID(ctx, nftID); err != nil {
		return nil, err
	}
	return s.TransferRepo.ListByNFT(ctx, nftID)
}

// Collections returns every collection with its NFTs nested.
func (s *CatalogService) Collections(ctx context.Context) ([]model.NFTCollection, error) {
	cols, err := s.CollectionRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return cols, nil
	}
	ids := make([]uint64, len(cols))
	idx := make(map[uint64]int, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
		idx[c.ID] = i
	}
	nfts, err := s.NFTRepo.ListByCollections(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range nfts {
		if i, ok := idx[n.CollectionID]; ok {
			cols[i].NFTs = append(cols[i].NFTs, n)
		}
	}
	return cols, nil
}

// Marketplace runs one filtered, sorted, paginated marketplace query.
func (s *CatalogService) Marketplace(ctx context.Context, q repository.MarketplaceQuery) (catalog.Page, error) {
	rows, total, err := s.NFTRepo.SearchMarketplace(ctx, q)
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.BuildPage(q, rows, total), nil
}

// LegacyListing is the combined listing of both collections ordered by
// price, deduplicated on token and collection.
func (s *CatalogService) LegacyListing(ctx context.Context) ([]catalog.Item, error) {
	limit := s.Cfg.LegacyListingLimit
	if limit <= 0 {
		limit = 500
	}
	nfts, err := s.NFTRepo.ListClassifiedForSale(ctx, limit)
	if err != nil {
		return nil, err
	}
	nfts = catalog.Dedup(nfts)

	owners := make([]uint64, 0, len(nfts))
	seen := map[uint64]bool{}
	for _, n := range nfts {
		if !seen[n.OwnerID] {
			seen[n.OwnerID] = true
			owners = append(owners, n.OwnerID)
		}
	}
	names, err := s.UserRepo.UsernamesByIDs(ctx, owners)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(nfts))
	for _, n := range nfts {
		items = append(items, catalog.NewItem(n, names[n.OwnerID]))
	}
	return items, nil
}

// publish sends a transfer event without failing the committed request.
func (s *CatalogService) publish(ctx context.Context, n model.NFT, kind string, from, to uint64, price string, at time.Time) {
	metrics.RecordTransfer(kind)
	if s.Events == nil {
		return
	}
	names, err := s.UserRepo.UsernamesByIDs(ctx, []uint64{from, to})
	if err != nil {
		s.Log.Warnw("resolve usernames for event", "nft_id", n.ID, "err", err)
	}
	ev := queue.NFTTransferredEvent{
		NFTID:         n.ID,
		TokenID:       n.TokenID,
		Name:          n.Name,
		TransferType:  kind,
		FromUserID:    from,
		FromUsername:  names[from],
		ToUserID:      to,
		ToUsername:    names[to],
		Price:         price,
		TransferredAt: at,
	}
	err = s.Events.PublishTransferred(ctx, ev)
	metrics.RecordEvent("publish", err)
	if err != nil {
		s.Log.Warnw("publish nft.transferred", "nft_id", n.ID, "err", err)
	}
}

// lockOwned loads and locks an NFT and checks the caller owns it.
func (s *CatalogService) lockOwned(ctx context.Context, tx *sql.Tx, nftID, callerID uint64) (model.NFT, error) {
	n, err := s.NFTRepo.GetForUpdateTx(ctx, tx, nftID)
	if err != nil {
		return model.NFT{}, err
	}
	if n.OwnerID != callerID {
		return model.NFT{}, repository.ErrForbidden
	}
	return n, nil
}

// treasury resolves the account that collects fees and commissions.
func (s *CatalogService) treasury(ctx context.Context, tx *sql.Tx) (model.User, error) {
	u, err := s.UserRepo.GetByUsernameTx(ctx, tx, s.Cfg.TreasuryUsername)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrTreasuryMissing
	}
	return u, err
}
