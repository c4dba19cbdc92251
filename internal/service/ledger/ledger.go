package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
)

const defaultRecentLimit = 10

type Config struct {
	// LowBalanceThreshold flags wallets in the summary read model once the
	// balance drops below it. Cents.
	LowBalanceThreshold int64

	// RecentLimit is how many transactions the summary carries
	RecentLimit int
}

// LedgerService owns wallet provisioning and is the sole mutation point for
// wallet balances. Everything that moves money calls Record.
type LedgerService struct {
	storage     repository.Storage
	lowBalance  int64
	recentLimit int
}

func NewService(cfg Config, storage repository.Storage) *LedgerService {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}

	return &LedgerService{
		storage:     storage,
		lowBalance:  cfg.LowBalanceThreshold,
		recentLimit: cfg.RecentLimit,
	}
}

// GetOrCreateWallet lazily provisions the professional's wallet. Safe under
// a concurrent first call: the loser of the unique-constraint race re-fetches
// the winner's wallet.
func (s *LedgerService) GetOrCreateWallet(ctx context.Context, professionalID uuid.UUID) (models.Wallet, error) {
	return getOrCreateWallet(ctx, s.storage, professionalID)
}

// RecordParams describes one balance-affecting entry
type RecordParams struct {
	WalletID    uuid.UUID
	Amount      int64
	Type        string
	Description string
	ReferenceID *string
	AdminID     *uuid.UUID
	AdminNote   *string
}

// Record applies one transaction to a wallet: lock the wallet row, snapshot
// the balance, persist the new balance and accumulators, append the entry.
//
// It must run inside a unit of work; pass the transaction-scoped Storage from
// InTx so the row lock is held until commit and a failure anywhere rolls back
// both the wallet update and the entry. Callers without their own multi-step
// workflow should use RecordInTx instead.
//
// Negative resulting balances are not rejected here: overdraft policy belongs
// to callers.
func (s *LedgerService) Record(ctx context.Context, storage repository.Storage, p RecordParams) (models.Transaction, error) {
	var tr models.Transaction

	switch p.Type {
	case models.TransactionTypeDeposit, models.TransactionTypeDebit, models.TransactionTypeAdminAdjustment:
	default:
		return tr, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransactionType, p.Type)
	}

	wallet, err := storage.Wallets().GetByID(ctx, p.WalletID, true)
	if err != nil {
		return tr, fmt.Errorf("can't lock wallet %s: %w", p.WalletID, err)
	}

	before := wallet.Balance
	wallet.Balance = before + p.Amount

	switch {
	case p.Amount > 0 && p.Type == models.TransactionTypeDeposit:
		wallet.TotalDeposits += p.Amount
	case p.Amount < 0 && p.Type == models.TransactionTypeDebit:
		wallet.TotalSpent += -p.Amount
	}

	if _, err := storage.Wallets().UpdateBalance(ctx, wallet); err != nil {
		return tr, fmt.Errorf("can't update wallet %s: %w", p.WalletID, err)
	}

	tr, err = storage.Transactions().Create(ctx, models.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		CreatedAt:     time.Now(),
		Type:          p.Type,
		Status:        models.TransactionConfirmed,
		Amount:        p.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Description:   p.Description,
		ReferenceID:   p.ReferenceID,
		AdminID:       p.AdminID,
		AdminNote:     p.AdminNote,
	})
	if err != nil {
		return tr, fmt.Errorf("can't append transaction for wallet %s amount %d type %s: %w", p.WalletID, p.Amount, p.Type, err)
	}

	return tr, nil
}

// RecordInTx runs Record in its own unit of work
func (s *LedgerService) RecordInTx(ctx context.Context, p RecordParams) (models.Transaction, error) {
	var tr models.Transaction

	err := s.storage.InTx(ctx, func(txStorage repository.Storage) error {
		var err error
		tr, err = s.Record(ctx, txStorage, p)
		return err
	})

	return tr, err
}

// Summary is the wallet dashboard read model: balance, low-balance flag,
// aggregate totals and the most recent entries. No side effects.
func (s *LedgerService) Summary(ctx context.Context, professionalID uuid.UUID) (models.WalletSummary, error) {
	var summary models.WalletSummary

	wallet, err := s.storage.Wallets().GetByProfessional(ctx, professionalID, false)
	if err != nil {
		return summary, err
	}

	recent, err := s.storage.Transactions().ListByWallet(ctx, wallet.ID, repository.TransactionFilter{Limit: s.recentLimit})
	if err != nil {
		return summary, fmt.Errorf("can't list recent transactions: %w", err)
	}

	return models.WalletSummary{
		Balance:       wallet.Balance,
		LowBalance:    wallet.Balance < s.lowBalance,
		TotalDeposits: wallet.TotalDeposits,
		TotalSpent:    wallet.TotalSpent,
		Recent:        recent,
	}, nil
}

// History lists the wallet's transactions, optionally filtered by type and
// date range, newest first.
func (s *LedgerService) History(ctx context.Context, professionalID uuid.UUID, filter repository.TransactionFilter) ([]models.Transaction, error) {
	wallet, err := s.storage.Wallets().GetByProfessional(ctx, professionalID, false)
	if err != nil {
		return nil, err
	}

	return s.storage.Transactions().ListByWallet(ctx, wallet.ID, filter)
}

// SummaryForUser resolves the caller's professional profile first; handlers
// only know the authenticated user.
func (s *LedgerService) SummaryForUser(ctx context.Context, userID uuid.UUID) (models.WalletSummary, error) {
	pro, err := s.storage.Professionals().GetByUser(ctx, userID)
	if err != nil {
		return models.WalletSummary{}, err
	}

	return s.Summary(ctx, pro.ID)
}

func (s *LedgerService) HistoryForUser(ctx context.Context, userID uuid.UUID, filter repository.TransactionFilter) ([]models.Transaction, error) {
	pro, err := s.storage.Professionals().GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.History(ctx, pro.ID, filter)
}

// getOrCreateWallet is shared with services that provision inside their own
// unit of work.
func getOrCreateWallet(ctx context.Context, storage repository.Storage, professionalID uuid.UUID) (models.Wallet, error) {
	wallet, err := storage.Wallets().GetByProfessional(ctx, professionalID, false)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, apperrors.ErrWalletNotFound):
	default:
		return wallet, err
	}

	wallet, err = storage.Wallets().Create(ctx, professionalID)
	if err == nil {
		return wallet, nil
	}

	// Lost the first-call race: somebody created the wallet in between.
	// Re-fetch the winner's row.
	if errors.Is(err, apperrors.ErrWalletExists) {
		return storage.Wallets().GetByProfessional(ctx, professionalID, false)
	}

	return wallet, err
}
