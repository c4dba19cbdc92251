package deposit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
	"github.com/proconnect/prowallet/internal/service/payment"
)

// Provider is the outbound slice of the payment client the reconciler needs
type Provider interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64, correlationID string) (payment.CheckoutSession, error)
}

// Ledger is the slice of the ledger service the reconciler needs
type Ledger interface {
	GetOrCreateWallet(ctx context.Context, professionalID uuid.UUID) (models.Wallet, error)
	CreatePending(ctx context.Context, walletID uuid.UUID, amount int64, description string, referenceID string) (models.Transaction, error)
	ApplyPendingDeposit(ctx context.Context, transactionID uuid.UUID, referenceID string) (models.Transaction, error)
}

// DepositService runs the two-phase deposit workflow: a pending transaction
// plus a provider checkout session first, balance movement only once the
// provider's webhook confirms the payment.
type DepositService struct {
	storage  repository.Storage
	ledger   Ledger
	provider Provider
	logger   logger.Logger
}

func NewService(storage repository.Storage, ledger Ledger, provider Provider, l logger.Logger) *DepositService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &DepositService{
		storage:  storage,
		ledger:   ledger,
		provider: provider,
		logger:   l,
	}
}

// Initiation is what the caller gets back from phase 1
type Initiation struct {
	Transaction models.Transaction
	RedirectURL string
}

// Initiate starts a deposit for the professional owned by userID. The wallet
// balance does not move here: a pending transaction is created as the
// placeholder the webhook later reconciles against.
//
// If the provider call times out the pending transaction deliberately stays:
// the session may exist provider-side, so the row remains confirmable by
// webhook or cancellable by the user.
func (s *DepositService) Initiate(ctx context.Context, userID uuid.UUID, amountCents int64) (Initiation, error) {
	var in Initiation

	if amountCents <= 0 {
		return in, fmt.Errorf("deposit of %d cents: %w", amountCents, apperrors.ErrAmountNotPositive)
	}

	pro, err := s.storage.Professionals().GetByUser(ctx, userID)
	if err != nil {
		return in, err
	}
	if !pro.Verified {
		return in, fmt.Errorf("professional %s: %w", pro.ID, apperrors.ErrNotVerified)
	}

	wallet, err := s.ledger.GetOrCreateWallet(ctx, pro.ID)
	if err != nil {
		return in, err
	}

	tempRef := fmt.Sprintf("pending_%d", time.Now().UnixNano())
	tr, err := s.ledger.CreatePending(ctx, wallet.ID, amountCents, "wallet deposit", tempRef)
	if err != nil {
		return in, fmt.Errorf("can't create pending deposit: %w", err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, amountCents, tr.ID.String())
	if err != nil {
		s.logger.Error("Checkout session creation failed, pending transaction kept",
			"transaction_id", tr.ID, "wallet_id", wallet.ID, "amount", amountCents, "error", err)
		return in, fmt.Errorf("can't create checkout session: %w", err)
	}

	if err := s.storage.Transactions().SetReference(ctx, tr.ID, session.SessionID); err != nil {
		return in, fmt.Errorf("can't store session reference: %w", err)
	}
	tr.ReferenceID = &session.SessionID

	return Initiation{Transaction: tr, RedirectURL: session.URL}, nil
}

// HandleWebhook reconciles one verified provider event. Errors mean the
// webhook endpoint answers non-2xx and the provider redelivers.
func (s *DepositService) HandleWebhook(ctx context.Context, event payment.WebhookEvent) error {
	switch event.Type {
	case payment.EventPaymentSucceeded:
		return s.confirm(ctx, event)
	case payment.EventPaymentFailed:
		return s.fail(ctx, event)
	default:
		return fmt.Errorf("unsupported webhook event type %q", event.Type)
	}
}

// confirm applies the pending deposit the event references. Duplicate
// deliveries are successful no-ops; an unknown transaction id is a loud
// reconciliation failure, never silently dropped.
func (s *DepositService) confirm(ctx context.Context, event payment.WebhookEvent) error {
	transactionID, err := uuid.Parse(event.Data.Metadata.TransactionID)
	if err != nil {
		return fmt.Errorf("%w: event %s carries malformed transaction id %q",
			apperrors.ErrUnknownPaymentReference, event.ID, event.Data.Metadata.TransactionID)
	}

	applied, err := s.ledger.ApplyPendingDeposit(ctx, transactionID, event.Data.PaymentID)

	switch {
	case err == nil:
		s.logger.Info("Deposit confirmed",
			"transaction_id", applied.ID, "wallet_id", applied.WalletID,
			"amount", applied.Amount, "payment_id", event.Data.PaymentID)
		return nil
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		// The id may be stale (redelivery after the row was re-keyed) while
		// the payment itself was already applied: the payment id becomes the
		// confirmed row's reference, so look it up before alarming anyone.
		byRef, refErr := s.storage.Transactions().GetByReference(ctx, event.Data.PaymentID)
		if refErr == nil && byRef.Status == models.TransactionConfirmed {
			s.logger.Info("Duplicate payment delivery, already applied",
				"event_id", event.ID, "transaction_id", byRef.ID, "payment_id", event.Data.PaymentID)
			return nil
		}
		s.logger.Error("Webhook references unknown transaction",
			"event_id", event.ID, "transaction_id", transactionID, "payment_id", event.Data.PaymentID)
		return fmt.Errorf("%w: %v", apperrors.ErrUnknownPaymentReference, err)
	default:
		s.logger.Error("Deposit confirmation failed",
			"event_id", event.ID, "transaction_id", transactionID, "error", err)
		return err
	}
}

// fail records a failed payment. The balance was never moved, so the pending
// row is only flagged; the user cleans it up through the cancel path.
func (s *DepositService) fail(ctx context.Context, event payment.WebhookEvent) error {
	transactionID, err := uuid.Parse(event.Data.Metadata.TransactionID)
	if err != nil {
		return fmt.Errorf("%w: event %s carries malformed transaction id %q",
			apperrors.ErrUnknownPaymentReference, event.ID, event.Data.Metadata.TransactionID)
	}

	err = s.storage.Transactions().SetStatus(ctx, transactionID, models.TransactionFailed)

	switch {
	case err == nil:
		s.logger.Warn("Deposit payment failed",
			"transaction_id", transactionID, "payment_id", event.Data.PaymentID, "reason", event.Data.FailureReason)
		return nil
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		// Either the id is unknown or the row is no longer pending. A failure
		// event for a confirmed deposit needs an operator to look at it.
		s.logger.Error("Failure event does not match a pending transaction",
			"event_id", event.ID, "transaction_id", transactionID, "payment_id", event.Data.PaymentID)
		return fmt.Errorf("%w: %v", apperrors.ErrUnknownPaymentReference, err)
	default:
		return err
	}
}

// CancelPending removes a still-pending deposit of the requesting user. Safe
// because pending deposits never touched the balance.
func (s *DepositService) CancelPending(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID) error {
	tr, err := s.storage.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	if tr.Type != models.TransactionTypeDeposit || tr.Status != models.TransactionPending {
		return fmt.Errorf("transaction %s (%s/%s): %w", tr.ID, tr.Type, tr.Status, apperrors.ErrNotCancellable)
	}

	wallet, err := s.storage.Wallets().GetByID(ctx, tr.WalletID, false)
	if err != nil {
		return err
	}

	pro, err := s.storage.Professionals().GetByID(ctx, wallet.ProfessionalID)
	if err != nil {
		return err
	}
	if pro.UserID != userID {
		return fmt.Errorf("transaction %s: %w", tr.ID, apperrors.ErrNotOwner)
	}

	if err := s.storage.Transactions().DeletePending(ctx, tr.ID); err != nil {
		return err
	}

	s.logger.Info("Pending deposit cancelled", "transaction_id", tr.ID, "wallet_id", tr.WalletID, "amount", tr.Amount)
	return nil
}
