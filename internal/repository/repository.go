package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/proconnect/prowallet/internal/models"
)

// Storage bundles all repositories behind one handle so services can run
// multi-repository mutations in a single unit of work. Implementations must
// guarantee that InTx either commits every change made through the inner
// Storage or none of them.
type Storage interface {
	Wallets() WalletRepo
	Transactions() TransactionRepo
	ClickEvents() ClickEventRepo
	Offers() OfferRepo
	Professionals() ProfessionalRepo

	// InTx runs fn inside a database transaction. The Storage passed to fn is
	// scoped to that transaction; an error from fn rolls everything back.
	InTx(ctx context.Context, fn func(Storage) error) error
}

type WalletRepo interface {
	// Create wallet with zero balance and accumulators.
	// A concurrent create for the same professional hits the unique constraint;
	// must return apperrors-wrapped conflict the caller recovers by re-fetching.
	Create(ctx context.Context, professionalID uuid.UUID) (models.Wallet, error)

	// Get wallet. With forUpdate the row is locked until the surrounding
	// transaction ends, serializing concurrent balance mutations per wallet.
	// Must return apperrors.ErrWalletNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Wallet, error)
	GetByProfessional(ctx context.Context, professionalID uuid.UUID, forUpdate bool) (models.Wallet, error)

	// UpdateBalance persists a new balance and accumulator values.
	UpdateBalance(ctx context.Context, w models.Wallet) (models.Wallet, error)
}

// TransactionFilter narrows and pages ListByWallet
type TransactionFilter struct {
	Types  []string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type TransactionRepo interface {
	Create(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// Must return apperrors.ErrTransactionNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	GetByReference(ctx context.Context, referenceID string) (models.Transaction, error)

	ListByWallet(ctx context.Context, walletID uuid.UUID, filter TransactionFilter) ([]models.Transaction, error)

	// SetReference replaces the correlation key of a pending deposit once the
	// provider session is known
	SetReference(ctx context.Context, id uuid.UUID, referenceID string) error

	// ConfirmPending applies a pending deposit row: fresh balance snapshots,
	// the provider's payment reference and status confirmed, in one update.
	// Rows that are no longer pending are left untouched and
	// ErrTransactionNotFound returned, which is how a duplicate webhook
	// delivery is detected.
	ConfirmPending(ctx context.Context, id uuid.UUID, balanceBefore, balanceAfter int64, referenceID string) (models.Transaction, error)

	// SetStatus moves a pending transaction to confirmed or failed. Rows that
	// are not pending are left untouched and ErrTransactionNotFound returned,
	// so duplicate confirmations surface instead of silently rewriting state.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error

	// DeletePending removes a still-pending deposit row. The cancel path is
	// the only caller; confirmed history is immutable.
	DeletePending(ctx context.Context, id uuid.UUID) error
}

type ClickEventRepo interface {
	// Create inserts the event unless one already exists for the same
	// (offer, client) pair; in that case the existing event is returned with
	// created == false. This is the click-billing dedup point.
	Create(ctx context.Context, event models.ClickEvent) (ev models.ClickEvent, created bool, err error)

	GetByOfferClient(ctx context.Context, offerID, clientID uuid.UUID) (models.ClickEvent, error)

	// SetTransactionID links the billing debit to the event
	SetTransactionID(ctx context.Context, id uuid.UUID, transactionID uuid.UUID) error
}

type OfferRepo interface {
	Create(ctx context.Context, offer models.Offer) (models.Offer, error)

	// Must return apperrors.ErrOfferNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (models.Offer, error)

	MarkViewed(ctx context.Context, id uuid.UUID) error
}

type ProfessionalRepo interface {
	Create(ctx context.Context, pro models.Professional) (models.Professional, error)

	// Must return apperrors.ErrProfessionalNotFound if missing
	GetByID(ctx context.Context, id uuid.UUID) (models.Professional, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (models.Professional, error)
}
