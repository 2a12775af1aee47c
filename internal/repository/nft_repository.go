package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// NFTRepo reads and writes the `nfts` table.  Every ownership or sale
// state change goes through a *Tx method so the caller can hold the row
// lock taken by GetForUpdateTx until commit.
type NFTRepo struct{ db *sql.DB }

func NewNFTRepo(db *sql.DB) *NFTRepo { return &NFTRepo{db: db} }

// DB exposes the underlying *sql.DB so services can begin transactions.
func (r *NFTRepo) DB() *sql.DB { return r.db }

const nftColumns = `n.id, n.collection_id, n.owner_id, n.name, COALESCE(n.description, ''), n.image_path,
	n.attributes, n.rarity, n.price, n.for_sale, n.minted_at, n.token_id,
	COALESCE(n.original_image_path, ''), n.sort_order, n.collection_kind`

// CreateTx inserts n and fills its ID.
func (r *NFTRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *model.NFT) error {
	var orig any
	if n.OriginalImagePath != "" {
		orig = n.OriginalImagePath
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO nfts (collection_id, owner_id, name, description, image_path, attributes, rarity, price,
			for_sale, minted_at, token_id, original_image_path, sort_order, collection_kind)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		n.CollectionID, n.OwnerID, n.Name, n.Description, n.ImagePath, n.Attributes, string(n.Rarity), n.Price,
		n.ForSale, n.MintedAt, n.TokenID, orig, n.SortOrder, string(n.CollectionKind))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// GetByID returns one NFT or ErrNotFound.
func (r *NFTRepo) GetByID(ctx context.Context, id uint64) (model.NFT, error) {
	return scanNFT(r.db.QueryRowContext(ctx, "SELECT "+nftColumns+" FROM nfts n WHERE n.id=?", id))
}

// GetForUpdateTx locks the NFT row for the rest of tx.
func (r *NFTRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.NFT, error) {
	return scanNFT(tx.QueryRowContext(ctx, "SELECT "+nftColumns+" FROM nfts n WHERE n.id=? FOR UPDATE", id))
}

// UpdateSaleTx sets the listing flag and price.
func (r *NFTRepo) UpdateSaleTx(ctx context.Context, tx *sql.Tx, id uint64, forSale bool, price string) error {
	_, err := tx.ExecContext(ctx, "UPDATE nfts SET for_sale=?, price=? WHERE id=?", forSale, price, id)
	return err
}

// TransferTx moves the NFT to newOwner and clears the listing.
func (r *NFTRepo) TransferTx(ctx context.Context, tx *sql.Tx, id, newOwner uint64, price string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE nfts SET owner_id=?, for_sale=0, price=? WHERE id=?", newOwner, price, id)
	return err
}

// ListByOwner returns the NFTs a user currently owns, newest first.
func (r *NFTRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.NFT, error) {
	return queryNFTs(ctx, r.db,
		"SELECT "+nftColumns+" FROM nfts n WHERE n.owner_id=? ORDER BY n.minted_at DESC, n.id DESC", ownerID)
}

// ListForSale returns every listed NFT, optionally hiding one owner's.
func (r *NFTRepo) ListForSale(ctx context.Context, excludeOwner uint64) ([]model.NFT, error) {
	if excludeOwner == 0 {
		return queryNFTs(ctx, r.db,
			"SELECT "+nftColumns+" FROM nfts n WHERE n.for_sale=1 ORDER BY n.id")
	}
	return queryNFTs(ctx, r.db,
		"SELECT "+nftColumns+" FROM nfts n WHERE n.for_sale=1 AND n.owner_id<>? ORDER BY n.id", excludeOwner)
}

// ListClassifiedForSale feeds the legacy combined listing: listed NFTs of
// either collection ordered by numeric price.
func (r *NFTRepo) ListClassifiedForSale(ctx context.Context, limit int) ([]model.NFT, error) {
	return queryNFTs(ctx, r.db,
		"SELECT "+nftColumns+` FROM nfts n
		 WHERE n.for_sale=1 AND n.collection_kind IN ('A','B')
		 ORDER BY CAST(n.price AS DECIMAL(18,2)) ASC, n.id ASC
		 LIMIT ?`, limit)
}

// ListByCollections returns the NFTs of the given collections.
func (r *NFTRepo) ListByCollections(ctx context.Context, collectionIDs []uint64) ([]model.NFT, error) {
	if len(collectionIDs) == 0 {
		return nil, nil
	}
	ph, args := inClause(collectionIDs)
	return queryNFTs(ctx, r.db,
		"SELECT "+nftColumns+" FROM nfts n WHERE n.collection_id IN ("+ph+") ORDER BY n.id", args...)
}

// ListUnclassified returns NFTs whose kind was never set.
func (r *NFTRepo) ListUnclassified(ctx context.Context) ([]model.NFT, error) {
	return queryNFTs(ctx, r.db,
		"SELECT "+nftColumns+" FROM nfts n WHERE n.collection_kind='' ORDER BY n.id")
}

// SetKind stores the classification of one NFT.
func (r *NFTRepo) SetKind(ctx context.Context, id uint64, kind model.CollectionKind) error {
	_, err := r.db.ExecContext(ctx, "UPDATE nfts SET collection_kind=? WHERE id=?", string(kind), id)
	return err
}

// TokenKeys returns (token_id, collection_id) of every NFT for dedup.
func (r *NFTRepo) TokenKeys(ctx context.Context) ([][2]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT token_id, CAST(collection_id AS CHAR) FROM nfts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][2]string
	for rows.Next() {
		var k [2]string
		if err := rows.Scan(&k[0], &k[1]); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// UsedImagePaths returns the image paths already assigned to some NFT.
func (r *NFTRepo) UsedImagePaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT image_path FROM nfts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]struct{}{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// DeleteByOwnerTx removes all NFTs of a user and returns the count.
func (r *NFTRepo) DeleteByOwnerTx(ctx context.Context, tx *sql.Tx, ownerID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM nfts WHERE owner_id=?", ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func queryNFTs(ctx context.Context, q querier, query string, args ...any) ([]model.NFT, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.NFT{}
	for rows.Next() {
		n, err := scanNFT(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNFT(s scanner, extra ...any) (model.NFT, error) {
	var (
		n         model.NFT
		rarity    string
		kind      string
		sortOrder sql.NullInt64
	)
	dest := []any{&n.ID, &n.CollectionID, &n.OwnerID, &n.Name, &n.Description, &n.ImagePath,
		&n.Attributes, &rarity, &n.Price, &n.ForSale, &n.MintedAt, &n.TokenID,
		&n.OriginalImagePath, &sortOrder, &kind}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return model.NFT{}, notFound(err)
	}
	n.Rarity = model.Rarity(rarity)
	n.CollectionKind = model.CollectionKind(kind)
	if sortOrder.Valid {
		v := int(sortOrder.Int64)
		n.SortOrder = &v
	}
	return n, nil
}
