package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, wallet_id, created_at, type, status, amount, balance_before, balance_after, description, reference_id, admin_id, admin_note`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, wallet_id, created_at, type, status, amount, balance_before, balance_after, description, reference_id, admin_id, admin_note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + transactionColumns

func (r *TransactionRepo) Create(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		tr.ID, tr.WalletID, tr.CreatedAt, tr.Type, tr.Status, tr.Amount,
		tr.BalanceBefore, tr.BalanceAfter, tr.Description, tr.ReferenceID, tr.AdminID, tr.AdminNote,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTransactionByID = `-- name: GetTransactionByID
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1
`

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransactionByID, id)
	return collectTransaction(rows)
}

const getTransactionByReference = `-- name: GetTransactionByReference
SELECT ` + transactionColumns + `
FROM transactions
WHERE reference_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (r *TransactionRepo) GetByReference(ctx context.Context, referenceID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransactionByReference, referenceID)
	return collectTransaction(rows)
}

func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, filter repository.TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = $1`
	args := []any{walletID}

	if len(filter.Types) > 0 {
		args = append(args, filter.Types)
		query += ` AND type = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, _ := r.DB.Query(ctx, query, args...)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

const setTransactionReference = `-- name: SetTransactionReference
UPDATE transactions
SET reference_id = $2
WHERE id = $1
`

func (r *TransactionRepo) SetReference(ctx context.Context, id uuid.UUID, referenceID string) error {
	tag, err := r.DB.Exec(ctx, setTransactionReference, id, referenceID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

const confirmPendingTransaction = `-- name: ConfirmPendingTransaction
UPDATE transactions
SET status = 'confirmed', balance_before = $2, balance_after = $3, reference_id = $4
WHERE id = $1 AND status = 'pending'
RETURNING ` + transactionColumns

func (r *TransactionRepo) ConfirmPending(ctx context.Context, id uuid.UUID, balanceBefore, balanceAfter int64, referenceID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, confirmPendingTransaction, id, balanceBefore, balanceAfter, referenceID)
	return collectTransaction(rows)
}

// Status transitions are only allowed out of 'pending', so a duplicate
// confirmation cannot flip a row twice.
const setTransactionStatus = `-- name: SetTransactionStatus
UPDATE transactions
SET status = $2
WHERE id = $1 AND status = 'pending'
`

func (r *TransactionRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.DB.Exec(ctx, setTransactionStatus, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

const deletePendingTransaction = `-- name: DeletePendingTransaction
DELETE FROM transactions
WHERE id = $1 AND status = 'pending'
`

func (r *TransactionRepo) DeletePending(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deletePendingTransaction, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

func collectTransaction(rows pgx.Rows) (models.Transaction, error) {
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var tr models.Transaction
	err := row.Scan(
		&tr.ID, &tr.WalletID, &tr.CreatedAt, &tr.Type, &tr.Status, &tr.Amount,
		&tr.BalanceBefore, &tr.BalanceAfter, &tr.Description, &tr.ReferenceID, &tr.AdminID, &tr.AdminNote,
	)
	return tr, err
}
