package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

type CollectionRepo struct{ DB *sql.DB }

func NewCollectionRepo(db *sql.DB) *CollectionRepo { return &CollectionRepo{DB: db} }

// EnsureForUserTx returns the id of the user's collection named name,
// creating it on first use.
func (r *CollectionRepo) EnsureForUserTx(ctx context.Context, tx *sql.Tx, userID uint64, name, description string) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM nft_collections WHERE user_id=? AND name=? ORDER BY id LIMIT 1 FOR UPDATE",
		userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO nft_collections (user_id, name, description) VALUES (?,?,?)",
		userID, name, description)
	if err != nil {
		return 0, err
	}
	n, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// ListAll returns every collection ordered by id, without NFTs.
func (r *CollectionRepo) ListAll(ctx context.Context) ([]model.NFTCollection, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, name, COALESCE(description, ''), COALESCE(cover_image, ''), created_at
		 FROM nft_collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.NFTCollection{}
	for rows.Next() {
		var c model.NFTCollection
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CoverImage, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.NFTs = []model.NFT{}
		out = append(out, c)
	}
	return out, rows.Err()
}
