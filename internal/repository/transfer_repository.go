package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// TransferRepo appends to and reads the nft_transfers audit trail.
type TransferRepo struct{ DB *sql.DB }

func NewTransferRepo(db *sql.DB) *TransferRepo { return &TransferRepo{DB: db} }

// CreateTx appends one transfer record.
func (r *TransferRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.NFTTransfer) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO nft_transfers (nft_id, from_user_id, to_user_id, transfer_type, price, transferred_at) VALUES (?,?,?,?,?,?)",
		t.NFTID, t.FromUserID, t.ToUserID, t.TransferType, t.Price, t.TransferredAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListByNFT returns the history of one NFT oldest first, with usernames
// resolved.  Users that no longer exist show up as "Unknown".
func (r *TransferRepo) ListByNFT(ctx context.Context, nftID uint64) ([]model.NFTTransfer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, t.nft_id, t.from_user_id, t.to_user_id, t.transfer_type, COALESCE(t.price, '0'), t.transferred_at,
			COALESCE(fu.username, 'Unknown'), COALESCE(tu.username, 'Unknown')
		 FROM nft_transfers t
		 LEFT JOIN users fu ON fu.id = t.from_user_id
		 LEFT JOIN users tu ON tu.id = t.to_user_id
		 WHERE t.nft_id=?
		 ORDER BY t.transferred_at ASC, t.id ASC`, nftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.NFTTransfer{}
	for rows.Next() {
		var t model.NFTTransfer
		if err := rows.Scan(&t.ID, &t.NFTID, &t.FromUserID, &t.ToUserID, &t.TransferType, &t.Price,
			&t.TransferredAt, &t.FromUsername, &t.ToUsername); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteForUserTx removes transfers where the user is either party or
// that reference one of the user's NFTs.
func (r *TransferRepo) DeleteForUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM nft_transfers
		 WHERE from_user_id=? OR to_user_id=?
		    OR nft_id IN (SELECT id FROM (SELECT id FROM nfts WHERE owner_id=?) owned)`,
		userID, userID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
