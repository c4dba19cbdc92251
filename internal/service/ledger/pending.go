package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
)

// CreatePending appends a DEPOSIT placeholder that does not move the balance:
// both snapshots equal the current balance and the status is pending. The
// entry is applied later by ApplyPendingDeposit, or deleted by the cancel
// path, once the payment provider has spoken.
func (s *LedgerService) CreatePending(ctx context.Context, walletID uuid.UUID, amount int64, description string, referenceID string) (models.Transaction, error) {
	var tr models.Transaction

	if amount <= 0 {
		return tr, fmt.Errorf("deposit of %d cents: %w", amount, apperrors.ErrAmountNotPositive)
	}

	wallet, err := s.storage.Wallets().GetByID(ctx, walletID, false)
	if err != nil {
		return tr, err
	}

	return s.storage.Transactions().Create(ctx, models.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		CreatedAt:     time.Now(),
		Type:          models.TransactionTypeDeposit,
		Status:        models.TransactionPending,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance,
		Description:   description,
		ReferenceID:   &referenceID,
	})
}

// ApplyPendingDeposit moves the balance for a previously created pending
// deposit. The pending row itself becomes the confirmed ledger entry with
// fresh balance snapshots taken under the wallet lock, so the per-wallet
// chain stays gapless no matter what happened between initiation and
// confirmation.
//
// Duplicate-safe: once the row is confirmed a second call is a successful
// no-op, which is what an at-least-once webhook needs.
func (s *LedgerService) ApplyPendingDeposit(ctx context.Context, transactionID uuid.UUID, referenceID string) (models.Transaction, error) {
	var applied models.Transaction

	err := s.storage.InTx(ctx, func(txStorage repository.Storage) error {
		tr, err := txStorage.Transactions().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}

		if tr.Type != models.TransactionTypeDeposit {
			return fmt.Errorf("transaction %s is %s, not a deposit: %w", tr.ID, tr.Type, apperrors.ErrUnknownPaymentReference)
		}

		wallet, err := txStorage.Wallets().GetByID(ctx, tr.WalletID, true)
		if err != nil {
			return fmt.Errorf("can't lock wallet %s: %w", tr.WalletID, err)
		}

		// Re-read under the wallet lock: a concurrent delivery that won the
		// lock first has already confirmed the row by now.
		tr, err = txStorage.Transactions().GetByID(ctx, tr.ID)
		if err != nil {
			return err
		}
		if tr.Status == models.TransactionConfirmed {
			applied = tr
			return nil
		}

		before := wallet.Balance
		wallet.Balance = before + tr.Amount
		wallet.TotalDeposits += tr.Amount

		if _, err := txStorage.Wallets().UpdateBalance(ctx, wallet); err != nil {
			return fmt.Errorf("can't update wallet %s: %w", wallet.ID, err)
		}

		applied, err = txStorage.Transactions().ConfirmPending(ctx, tr.ID, before, wallet.Balance, referenceID)
		return err
	})
	if err != nil {
		return applied, fmt.Errorf("can't apply pending deposit %s: %w", transactionID, err)
	}

	return applied, nil
}
