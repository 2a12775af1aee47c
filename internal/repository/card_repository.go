package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/nft-bank-marketplace/internal/model"
)

// CardRepo manages virtual cards and the money movements between them.
type CardRepo struct{ DB *sql.DB }

func NewCardRepo(db *sql.DB) *CardRepo { return &CardRepo{DB: db} }

// Balances are stored as DECIMAL(18,2); ROUND(balance*100) brings them back
// to integer cents.
const cardColumns = "id,user_id,type,currency,number,expiry,cvv,CAST(ROUND(balance*100) AS SIGNED),btc_balance,eth_balance,btc_address,eth_address,ton_address"

// CreateTx inserts a card and fills c.ID.
func (r *CardRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Card) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO cards (user_id, type, currency, number, expiry, cvv, balance, btc_address, eth_address, ton_address)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.UserID, c.Type, c.Currency, c.Number, c.Expiry, c.CVV, model.FormatCents(c.BalanceCents),
		c.BTCAddress, c.ETHAddress, c.TONAddress)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListByUser returns every card of a user ordered by id.
func (r *CardRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Card, error) {
	return queryCards(ctx, r.DB, "SELECT "+cardColumns+" FROM cards WHERE user_id=? ORDER BY id", userID)
}

// ListByType returns all cards of one type, used by the address repair job.
func (r *CardRepo) ListByType(ctx context.Context, cardType string) ([]model.Card, error) {
	return queryCards(ctx, r.DB, "SELECT "+cardColumns+" FROM cards WHERE type=? ORDER BY id", cardType)
}

// FiatCardForUpdateTx locks and returns the user's first fiat card.
func (r *CardRepo) FiatCardForUpdateTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Card, error) {
	c, err := scanCard(tx.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE user_id=? AND type=? ORDER BY id LIMIT 1 FOR UPDATE",
		userID, model.CardTypeFiat))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FiatCardsForUpdateTx locks the fiat cards of several users in one
// statement.  Rows are locked in card id order so concurrent transfers
// between the same users cannot deadlock.  The result maps each user to
// their lowest-id fiat card; users without one are absent.
func (r *CardRepo) FiatCardsForUpdateTx(ctx context.Context, tx *sql.Tx, userIDs []uint64) (map[uint64]*model.Card, error) {
	out := make(map[uint64]*model.Card, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	ph, args := inClause(userIDs)
	cards, err := queryCards(ctx, tx,
		"SELECT "+cardColumns+" FROM cards WHERE type=? AND user_id IN ("+ph+") ORDER BY id FOR UPDATE",
		append([]any{model.CardTypeFiat}, args...)...)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		c := cards[i]
		if _, seen := out[c.UserID]; !seen {
			out[c.UserID] = &c
		}
	}
	return out, nil
}

// AdjustBalanceTx adds delta cents (negative to debit) to a card balance.
func (r *CardRepo) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, cardID uint64, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE cards SET balance = balance + CAST(? AS DECIMAL(18,2)) WHERE id=?",
		model.FormatCents(deltaCents), cardID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAddresses rewrites the BTC/ETH addresses of a card.
func (r *CardRepo) UpdateAddresses(ctx context.Context, cardID uint64, btc, eth string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE cards SET btc_address=?, eth_address=? WHERE id=?", btc, eth, cardID)
	return err
}

// RecordTransactionTx appends a completed money movement.
func (r *CardRepo) RecordTransactionTx(ctx context.Context, tx *sql.Tx, t model.Transaction) error {
	amount := model.FormatCents(t.AmountCents)
	status := t.Status
	if status == "" {
		status = "completed"
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (from_card_id, to_card_id, amount, converted_amount, type, status, description, from_card_number, to_card_number)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		t.FromCardID, t.ToCardID, amount, amount, t.Type, status, t.Description, t.FromCardNumber, t.ToCardNumber)
	return err
}

func queryCards(ctx context.Context, q querier, query string, args ...any) ([]model.Card, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCard(s scanner) (model.Card, error) {
	var (
		c             model.Card
		btc, eth, ton sql.NullString
	)
	err := s.Scan(&c.ID, &c.UserID, &c.Type, &c.Currency, &c.Number, &c.Expiry, &c.CVV,
		&c.BalanceCents, &c.BTCBalance, &c.ETHBalance, &btc, &eth, &ton)
	if err != nil {
		return model.Card{}, notFound(err)
	}
	c.BTCAddress = nullString(btc)
	c.ETHAddress = nullString(eth)
	c.TONAddress = nullString(ton)
	return c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
