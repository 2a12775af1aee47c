package service

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/iliyamo/nft-bank-marketplace/internal/catalog"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// ClearAll deletes every NFT the user owns together with the transfers
// that mention the user or those NFTs.  It returns the NFT count.
func (s *CatalogService) ClearAll(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.TransferRepo.DeleteForUserTx(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		count, err = s.NFTRepo.DeleteByOwnerTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.Log.Infow("nfts cleared", "user_id", userID, "count", count)
	return count, nil
}

// BackfillKinds classifies NFTs stored before collection_kind existed.
// Rows that match neither collection stay unclassified.
func (s *CatalogService) BackfillKinds(ctx context.Context, dryRun bool) (int, error) {
	nfts, err := s.NFTRepo.ListUnclassified(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, n := range nfts {
		kind := catalog.InferNFT(n)
		if kind == model.KindNone {
			continue
		}
		updated++
		if dryRun {
			continue
		}
		if err := s.NFTRepo.SetKind(ctx, n.ID, kind); err != nil {
			return updated - 1, err
		}
	}
	return updated, nil
}

// Consolidation reports what ConsolidateLegacy did.
type Consolidation struct {
	Scanned  int
	Imported int
	Skipped  int
}

// ConsolidateLegacy moves rows of the old `nft` table into `nfts`.  A row
// whose legacy key already exists in `nfts` is dropped as a duplicate.
// Each row is handled in its own transaction so a partial run can be
// resumed.
func (s *CatalogService) ConsolidateLegacy(ctx context.Context) (Consolidation, error) {
	var rep Consolidation
	keys, err := s.NFTRepo.TokenKeys(ctx)
	if err != nil {
		return rep, err
	}
	existing := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		cid, _ := strconv.ParseUint(k[1], 10, 64)
		existing[catalog.Key(k[0], cid)] = struct{}{}
	}

	legacy, err := s.LegacyRepo.List(ctx)
	if err != nil {
		return rep, err
	}
	for _, l := range legacy {
		rep.Scanned++
		key := catalog.LegacyKey(l.TokenID, l.CollectionID)
		_, dup := existing[key]

		err := s.inTx(ctx, func(tx *sql.Tx) error {
			if !dup {
				if err := s.importLegacyTx(ctx, tx, l); err != nil {
					return err
				}
			}
			return s.LegacyRepo.DeleteTx(ctx, tx, l.ID)
		})
		if err != nil {
			return rep, err
		}
		if dup {
			rep.Skipped++
			continue
		}
		existing[key] = struct{}{}
		rep.Imported++
	}
	s.Log.Infow("legacy consolidation", "scanned", rep.Scanned, "imported", rep.Imported, "skipped", rep.Skipped)
	return rep, nil
}

func (s *CatalogService) importLegacyTx(ctx context.Context, tx *sql.Tx, l model.LegacyNFT) error {
	kind := catalog.Infer(l.Name, l.ImageURL, l.OriginalImagePath, l.CollectionName)
	colName := kind.DisplayName()
	if colName == "" {
		colName = l.CollectionName
	}
	if colName == "" {
		colName = "Legacy"
	}
	colID, err := s.CollectionRepo.EnsureForUserTx(ctx, tx, l.OwnerID, colName, "Imported from the legacy catalog")
	if err != nil {
		return err
	}
	minted := s.now()
	if l.MintedAt != nil {
		minted = *l.MintedAt
	}
	cents, err := model.ParseCents(l.Price)
	if err != nil {
		cents = 0
	}
	n := model.NFT{
		CollectionID:      colID,
		OwnerID:           l.OwnerID,
		Name:              l.Name,
		Description:       l.Description,
		ImagePath:         l.ImageURL,
		OriginalImagePath: l.OriginalImagePath,
		Rarity:            model.RarityCommon,
		Price:             model.FormatCents(cents),
		ForSale:           l.ForSale && cents > 0,
		MintedAt:          minted,
		TokenID:           catalog.LegacyTokenID(l.TokenID),
		CollectionKind:    kind,
	}
	return s.NFTRepo.CreateTx(ctx, tx, &n)
}
