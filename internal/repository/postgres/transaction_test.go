package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
	"github.com/proconnect/prowallet/internal/testutil"
)

func TestTransactions(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, db DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(db, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	// makeWallet provisions a professional and wallet for the transactions
	makeWallet := func(t *testing.T, storage repository.Storage) models.Wallet {
		t.Helper()
		pro, err := storage.Professionals().Create(t.Context(), models.Professional{UserID: uuid.New()})
		require.NoError(t, err)
		wallet, err := storage.Wallets().Create(t.Context(), pro.ID)
		require.NoError(t, err)
		return wallet
	}

	entry := func(wallet models.Wallet, typ string, status string, amount int64, at time.Time) models.Transaction {
		return models.Transaction{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			CreatedAt:     at,
			Type:          typ,
			Status:        status,
			Amount:        amount,
			BalanceBefore: 0,
			BalanceAfter:  amount,
		}
	}

	t.Run("Create and Get", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)

			ref := "sess_123"
			created, err := storage.Transactions().Create(t.Context(), models.Transaction{
				ID:            uuid.New(),
				WalletID:      wallet.ID,
				CreatedAt:     time.Now(),
				Type:          models.TransactionTypeDeposit,
				Status:        models.TransactionConfirmed,
				Amount:        5000,
				BalanceBefore: 0,
				BalanceAfter:  5000,
				Description:   "wallet top-up",
				ReferenceID:   &ref,
			})

			require.NoError(t, err, "transaction has to be created ok")
			require.Equal(t, wallet.ID, created.WalletID)
			require.Equal(t, int64(5000), created.Amount)
			require.Equal(t, models.TransactionConfirmed, created.Status)
			require.NotNil(t, created.ReferenceID)

			t.Run("by id", func(t *testing.T) {
				got, err := storage.Transactions().GetByID(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, created.ID, got.ID)
				require.Equal(t, "wallet top-up", got.Description)
			})

			t.Run("by reference", func(t *testing.T) {
				got, err := storage.Transactions().GetByReference(t.Context(), "sess_123")

				require.NoError(t, err)
				require.Equal(t, created.ID, got.ID)
			})

			t.Run("not found", func(t *testing.T) {
				_, err := storage.Transactions().GetByID(t.Context(), uuid.New())
				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)

				_, err = storage.Transactions().GetByReference(t.Context(), "sess_unknown")
				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})
	})

	t.Run("ListByWallet", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)
			now := time.Now()

			// Three entries, a minute apart, oldest first
			deposit := entry(wallet, models.TransactionTypeDeposit, models.TransactionConfirmed, 5000, now.Add(-2*time.Minute))
			debit := entry(wallet, models.TransactionTypeDebit, models.TransactionConfirmed, -250, now.Add(-time.Minute))
			adjustment := entry(wallet, models.TransactionTypeAdminAdjustment, models.TransactionConfirmed, 100, now)
			for _, tr := range []models.Transaction{deposit, debit, adjustment} {
				_, err := storage.Transactions().Create(t.Context(), tr)
				require.NoError(t, err)
			}

			t.Run("newest first", func(t *testing.T) {
				got, err := storage.Transactions().ListByWallet(t.Context(), wallet.ID, repository.TransactionFilter{})

				require.NoError(t, err)
				require.Len(t, got, 3)
				require.Equal(t, adjustment.ID, got[0].ID)
				require.Equal(t, deposit.ID, got[2].ID)
			})

			t.Run("filter by type", func(t *testing.T) {
				got, err := storage.Transactions().ListByWallet(t.Context(), wallet.ID, repository.TransactionFilter{
					Types: []string{models.TransactionTypeDebit},
				})

				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, debit.ID, got[0].ID)
			})

			t.Run("filter by date range", func(t *testing.T) {
				from := now.Add(-90 * time.Second)
				to := now.Add(-30 * time.Second)
				got, err := storage.Transactions().ListByWallet(t.Context(), wallet.ID, repository.TransactionFilter{
					From: &from,
					To:   &to,
				})

				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, debit.ID, got[0].ID)
			})

			t.Run("limit and offset", func(t *testing.T) {
				got, err := storage.Transactions().ListByWallet(t.Context(), wallet.ID, repository.TransactionFilter{
					Limit:  1,
					Offset: 1,
				})

				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, debit.ID, got[0].ID)
			})

			t.Run("other wallet is empty", func(t *testing.T) {
				other := makeWallet(t, storage)
				got, err := storage.Transactions().ListByWallet(t.Context(), other.ID, repository.TransactionFilter{})

				require.NoError(t, err)
				require.Empty(t, got)
			})
		})
	})

	t.Run("SetReference", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)
			pending, err := storage.Transactions().Create(t.Context(), entry(wallet, models.TransactionTypeDeposit, models.TransactionPending, 5000, time.Now()))
			require.NoError(t, err)

			err = storage.Transactions().SetReference(t.Context(), pending.ID, "sess_456")
			require.NoError(t, err)

			got, err := storage.Transactions().GetByReference(t.Context(), "sess_456")
			require.NoError(t, err)
			require.Equal(t, pending.ID, got.ID)

			t.Run("unknown id", func(t *testing.T) {
				err := storage.Transactions().SetReference(t.Context(), uuid.New(), "sess_789")
				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
			})
		})
	})

	t.Run("ConfirmPending", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)
			pending, err := storage.Transactions().Create(t.Context(), entry(wallet, models.TransactionTypeDeposit, models.TransactionPending, 5000, time.Now()))
			require.NoError(t, err)

			confirmed, err := storage.Transactions().ConfirmPending(t.Context(), pending.ID, 100, 5100, "pay_1")

			require.NoError(t, err)
			require.Equal(t, models.TransactionConfirmed, confirmed.Status)
			require.Equal(t, int64(100), confirmed.BalanceBefore)
			require.Equal(t, int64(5100), confirmed.BalanceAfter)
			require.NotNil(t, confirmed.ReferenceID)
			require.Equal(t, "pay_1", *confirmed.ReferenceID)

			t.Run("second confirm fails", func(t *testing.T) {
				_, err := storage.Transactions().ConfirmPending(t.Context(), pending.ID, 5100, 10100, "pay_1")

				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "confirmed row must not be applied twice")
			})
		})
	})

	t.Run("SetStatus", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)
			pending, err := storage.Transactions().Create(t.Context(), entry(wallet, models.TransactionTypeDeposit, models.TransactionPending, 5000, time.Now()))
			require.NoError(t, err)

			err = storage.Transactions().SetStatus(t.Context(), pending.ID, models.TransactionFailed)
			require.NoError(t, err)

			got, err := storage.Transactions().GetByID(t.Context(), pending.ID)
			require.NoError(t, err)
			require.Equal(t, models.TransactionFailed, got.Status)

			t.Run("failed row stays failed", func(t *testing.T) {
				err := storage.Transactions().SetStatus(t.Context(), pending.ID, models.TransactionConfirmed)

				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "transitions are allowed out of pending only")
			})
		})
	})

	t.Run("DeletePending", func(t *testing.T) {
		withTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			wallet := makeWallet(t, storage)

			t.Run("pending is deleted", func(t *testing.T) {
				withTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					pending, err := storage.Transactions().Create(t.Context(), entry(wallet, models.TransactionTypeDeposit, models.TransactionPending, 5000, time.Now()))
					require.NoError(t, err)

					err = storage.Transactions().DeletePending(t.Context(), pending.ID)
					require.NoError(t, err)

					_, err = storage.Transactions().GetByID(t.Context(), pending.ID)
					require.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
				})
			})

			t.Run("confirmed is kept", func(t *testing.T) {
				withTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					confirmed, err := storage.Transactions().Create(t.Context(), entry(wallet, models.TransactionTypeDeposit, models.TransactionConfirmed, 5000, time.Now()))
					require.NoError(t, err)

					err = storage.Transactions().DeletePending(t.Context(), confirmed.ID)

					require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "confirmed history is immutable")
				})
			})
		})
	})
}
