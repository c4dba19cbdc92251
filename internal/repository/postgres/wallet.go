package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (id, professional_id, balance, total_deposits, total_spent, created_at)
VALUES ($1, $2, 0, 0, 0, $3)
RETURNING id, professional_id, balance, total_deposits, total_spent, created_at
`

func (r *WalletRepo) Create(ctx context.Context, professionalID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, uuid.New(), professionalID, time.Now())
	w, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return w, fmt.Errorf("professional %s: %w", professionalID, apperrors.ErrWalletExists)
		}

		return w, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

const getWalletByID = `-- name: GetWalletByID
SELECT id, professional_id, balance, total_deposits, total_spent, created_at
FROM wallets
WHERE id = $1
`

const getWalletByProfessional = `-- name: GetWalletByProfessional
SELECT id, professional_id, balance, total_deposits, total_spent, created_at
FROM wallets
WHERE professional_id = $1
`

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Wallet, error) {
	return r.get(ctx, getWalletByID, id, forUpdate)
}

func (r *WalletRepo) GetByProfessional(ctx context.Context, professionalID uuid.UUID, forUpdate bool) (models.Wallet, error) {
	return r.get(ctx, getWalletByProfessional, professionalID, forUpdate)
}

func (r *WalletRepo) get(ctx context.Context, query string, arg uuid.UUID, forUpdate bool) (models.Wallet, error) {
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, arg)
	w, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return w, nil
	case errors.Is(err, pgx.ErrNoRows):
		return w, apperrors.ErrWalletNotFound
	default:
		return w, fmt.Errorf("db error: %w", err)
	}
}

const updateWalletBalance = `-- name: UpdateWalletBalance
UPDATE wallets
SET balance = $2, total_deposits = $3, total_spent = $4
WHERE id = $1
RETURNING id, professional_id, balance, total_deposits, total_spent, created_at
`

func (r *WalletRepo) UpdateBalance(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, updateWalletBalance, w.ID, w.Balance, w.TotalDeposits, w.TotalSpent)
	updated, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, apperrors.ErrWalletNotFound
	default:
		return updated, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.ProfessionalID, &w.Balance, &w.TotalDeposits, &w.TotalSpent, &w.CreatedAt)
	return w, err
}
