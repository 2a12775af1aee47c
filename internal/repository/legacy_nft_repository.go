package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// LegacyNFTRepo reads the pre-`nfts` table.  After consolidation the table
// is empty and nothing but the admin CLI touches it.
type LegacyNFTRepo struct{ DB *sql.DB }

func NewLegacyNFTRepo(db *sql.DB) *LegacyNFTRepo { return &LegacyNFTRepo{DB: db} }

// List returns every legacy row ordered by id.
func (r *LegacyNFTRepo) List(ctx context.Context) ([]model.LegacyNFT, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, token_id, collection_id, name, COALESCE(description, ''), COALESCE(image_url, ''),
			COALESCE(original_image_path, ''), COALESCE(price, '0'), for_sale, owner_id, creator_id,
			COALESCE(collection_name, ''), minted_at
		 FROM nft ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LegacyNFT
	for rows.Next() {
		var (
			l            model.LegacyNFT
			collectionID sql.NullInt64
			creatorID    sql.NullInt64
			mintedAt     sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.TokenID, &collectionID, &l.Name, &l.Description, &l.ImageURL,
			&l.OriginalImagePath, &l.Price, &l.ForSale, &l.OwnerID, &creatorID, &l.CollectionName, &mintedAt); err != nil {
			return nil, err
		}
		if collectionID.Valid {
			v := uint64(collectionID.Int64)
			l.CollectionID = &v
		}
		if creatorID.Valid {
			v := uint64(creatorID.Int64)
			l.CreatorID = &v
		}
		if mintedAt.Valid {
			t := mintedAt.Time
			l.MintedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteTx removes one legacy row once it has been carried over.
func (r *LegacyNFTRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM nft WHERE id=?", id)
	return err
}
