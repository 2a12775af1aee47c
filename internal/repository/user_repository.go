package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/nft-bank-marketplace/internal/database"
	"github.com/iliyamo/nft-bank-marketplace/internal/model"
	"github.com/iliyamo/nft-bank-marketplace/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,password_hash,is_regulator,regulator_balance,last_nft_generation,nft_generation_count,created_at"

// NormalizeUsername trims the handle.  Usernames are case sensitive.
func NormalizeUsername(s string) string { return strings.TrimSpace(s) }

// CreateTx inserts a user inside tx and returns its ID.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, username, password string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		NormalizeUsername(username), hash)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetRegulator flips the treasury flag.  Used by the admin CLI.
func (r *UserRepo) SetRegulator(ctx context.Context, id uint64, on bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_regulator=? WHERE id=?", on, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByUsername fetches a user by handle.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return getUserByUsername(ctx, r.DB, username)
}

// GetByUsernameTx is GetByUsername inside tx.
func (r *UserRepo) GetByUsernameTx(ctx context.Context, tx *sql.Tx, username string) (model.User, error) {
	return getUserByUsername(ctx, tx, username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIDForUpdateTx locks the user row, which serializes NFT generation
// counters for one user.
func (r *UserRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// RecordGenerationTx stores the generation timestamp and daily counter.
func (r *UserRepo) RecordGenerationTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time, count int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET last_nft_generation=?, nft_generation_count=? WHERE id=?",
		at, count, id)
	return err
}

// UsernamesByIDs resolves a set of ids to handles.  Unknown ids are absent
// from the result.
func (r *UserRepo) UsernamesByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ph, args := inClause(ids)
	rows, err := r.DB.QueryContext(ctx, "SELECT id, username FROM users WHERE id IN ("+ph+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func getUserByUsername(ctx context.Context, q querier, username string) (model.User, error) {
	return scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", NormalizeUsername(username)))
}

func scanUser(s scanner) (model.User, error) {
	var (
		u    model.User
		last sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsRegulator, &u.RegulatorBalance,
		&last, &u.NFTGenerationCount, &u.CreatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	if last.Valid {
		t := last.Time
		u.LastNFTGeneration = &t
	}
	return u, nil
}

// inClause builds "?,?,?" and the matching args for an IN list.
func inClause(ids []uint64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return strings.Join(ph, ","), args
}
