package ledger

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
	"github.com/proconnect/prowallet/internal/repository/postgres"
	"github.com/proconnect/prowallet/internal/testutil"
)

func TestLedger(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper function to create LedgerService within transaction
	inTx := func(t *testing.T, cfg Config, fn func(s *LedgerService, storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(cfg, storage), storage)
		})
	}

	makePro := func(t *testing.T, storage repository.Storage) models.Professional {
		t.Helper()
		pro, err := storage.Professionals().Create(t.Context(), models.Professional{UserID: uuid.New(), Verified: true})
		require.NoError(t, err)
		return pro
	}

	t.Run("GetOrCreateWallet", func(t *testing.T) {
		t.Run("creates on first call", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)

				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)

				require.NoError(t, err)
				require.Equal(t, pro.ID, wallet.ProfessionalID)
				require.Zero(t, wallet.Balance)
			})
		})

		t.Run("returns existing on second call", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)

				first, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				second, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)
				require.Equal(t, first.ID, second.ID, "same professional must get the same wallet")
			})
		})

		// Runs against the pool, not a rollback tx: the unique-violation race
		// only exists across connections.
		t.Run("concurrent calls converge on one wallet", func(t *testing.T) {
			storage := postgres.NewStorage(pg.Pool)
			s := NewService(Config{}, storage)
			pro := makePro(t, storage)

			const workers = 8
			wallets := make([]models.Wallet, workers)
			errs := make([]error, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					wallets[i], errs[i] = s.GetOrCreateWallet(t.Context(), pro.ID)
				}(i)
			}
			wg.Wait()

			for i := 0; i < workers; i++ {
				require.NoError(t, errs[i], "the create race loser must re-fetch, not error")
				require.Equal(t, wallets[0].ID, wallets[i].ID, "every caller must get the same wallet")
			}
		})
	})

	t.Run("Record", func(t *testing.T) {
		t.Run("deposit moves balance and accumulator", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				tr, err := s.RecordInTx(t.Context(), RecordParams{
					WalletID:    wallet.ID,
					Amount:      5000,
					Type:        models.TransactionTypeDeposit,
					Description: "top-up",
				})

				require.NoError(t, err)
				require.Equal(t, models.TransactionConfirmed, tr.Status)
				require.Equal(t, int64(0), tr.BalanceBefore)
				require.Equal(t, int64(5000), tr.BalanceAfter)

				got, err := storage.Wallets().GetByID(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.Equal(t, int64(5000), got.Balance)
				require.Equal(t, int64(5000), got.TotalDeposits)
				require.Zero(t, got.TotalSpent)
			})
		})

		t.Run("debit may overdraw", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				_, err = s.RecordInTx(t.Context(), RecordParams{
					WalletID: wallet.ID,
					Amount:   500,
					Type:     models.TransactionTypeDeposit,
				})
				require.NoError(t, err)

				tr, err := s.RecordInTx(t.Context(), RecordParams{
					WalletID:    wallet.ID,
					Amount:      -1000,
					Type:        models.TransactionTypeDebit,
					Description: "click fee",
				})

				require.NoError(t, err, "overdraft must not be rejected")
				require.Equal(t, int64(500), tr.BalanceBefore)
				require.Equal(t, int64(-500), tr.BalanceAfter)

				got, err := storage.Wallets().GetByID(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.Equal(t, int64(-500), got.Balance)
				require.Equal(t, int64(1000), got.TotalSpent)
			})
		})

		t.Run("unknown type rejected", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				_, err = s.RecordInTx(t.Context(), RecordParams{
					WalletID: wallet.ID,
					Amount:   100,
					Type:     "REFUND",
				})

				require.ErrorIs(t, err, apperrors.ErrUnknownTransactionType)
			})
		})

		t.Run("chain replays to the balance", func(t *testing.T) {
			inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				amounts := []struct {
					amount int64
					typ    string
				}{
					{10000, models.TransactionTypeDeposit},
					{-250, models.TransactionTypeDebit},
					{-250, models.TransactionTypeDebit},
					{500, models.TransactionTypeAdminAdjustment},
					{-250, models.TransactionTypeDebit},
				}
				for _, a := range amounts {
					_, err := s.RecordInTx(t.Context(), RecordParams{WalletID: wallet.ID, Amount: a.amount, Type: a.typ})
					require.NoError(t, err)
				}

				entries, err := storage.Transactions().ListByWallet(t.Context(), wallet.ID, repository.TransactionFilter{})
				require.NoError(t, err)
				require.Len(t, entries, len(amounts))

				// Entries come newest first; walk the chain oldest first
				for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
					entries[i], entries[j] = entries[j], entries[i]
				}

				prev := int64(0)
				for _, e := range entries {
					require.Equal(t, prev, e.BalanceBefore, "each entry starts where the previous one ended")
					require.Equal(t, e.BalanceBefore+e.Amount, e.BalanceAfter)
					prev = e.BalanceAfter
				}

				got, err := storage.Wallets().GetByID(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.Equal(t, prev, got.Balance, "replaying the chain must land on the stored balance")
			})
		})
	})

	t.Run("Summary", func(t *testing.T) {
		t.Run("flags low balance", func(t *testing.T) {
			inTx(t, Config{LowBalanceThreshold: 1000}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				_, err = s.RecordInTx(t.Context(), RecordParams{WalletID: wallet.ID, Amount: 999, Type: models.TransactionTypeDeposit})
				require.NoError(t, err)

				summary, err := s.Summary(t.Context(), pro.ID)

				require.NoError(t, err)
				require.True(t, summary.LowBalance, "999 < 1000 must flag low balance")
				require.Equal(t, int64(999), summary.Balance)
				require.Equal(t, int64(999), summary.TotalDeposits)
			})
		})

		t.Run("threshold boundary is not low", func(t *testing.T) {
			inTx(t, Config{LowBalanceThreshold: 1000}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				_, err = s.RecordInTx(t.Context(), RecordParams{WalletID: wallet.ID, Amount: 1000, Type: models.TransactionTypeDeposit})
				require.NoError(t, err)

				summary, err := s.Summary(t.Context(), pro.ID)

				require.NoError(t, err)
				require.False(t, summary.LowBalance, "balance equal to the threshold is not low")
			})
		})

		t.Run("recent respects limit", func(t *testing.T) {
			inTx(t, Config{RecentLimit: 2}, func(s *LedgerService, storage repository.Storage) {
				pro := makePro(t, storage)
				wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
				require.NoError(t, err)

				for range 3 {
					_, err := s.RecordInTx(t.Context(), RecordParams{WalletID: wallet.ID, Amount: 100, Type: models.TransactionTypeDeposit})
					require.NoError(t, err)
				}

				summary, err := s.Summary(t.Context(), pro.ID)

				require.NoError(t, err)
				require.Len(t, summary.Recent, 2)
			})
		})
	})

	t.Run("ForUser", func(t *testing.T) {
		inTx(t, Config{}, func(s *LedgerService, storage repository.Storage) {
			userID := uuid.New()
			pro, err := storage.Professionals().Create(t.Context(), models.Professional{UserID: userID})
			require.NoError(t, err)
			wallet, err := s.GetOrCreateWallet(t.Context(), pro.ID)
			require.NoError(t, err)
			_, err = s.RecordInTx(t.Context(), RecordParams{WalletID: wallet.ID, Amount: 100, Type: models.TransactionTypeDeposit})
			require.NoError(t, err)

			summary, err := s.SummaryForUser(t.Context(), userID)
			require.NoError(t, err)
			require.Equal(t, int64(100), summary.Balance)

			history, err := s.HistoryForUser(t.Context(), userID, repository.TransactionFilter{})
			require.NoError(t, err)
			require.Len(t, history, 1)

			t.Run("unknown user", func(t *testing.T) {
				_, err := s.SummaryForUser(t.Context(), uuid.New())
				require.ErrorIs(t, err, apperrors.ErrProfessionalNotFound)
			})
		})
	})
}
