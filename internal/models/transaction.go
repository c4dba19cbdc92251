package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionTypeDeposit         = "DEPOSIT"
	TransactionTypeDebit           = "DEBIT"
	TransactionTypeAdminAdjustment = "ADMIN_ADJUSTMENT"
)

const (
	// TransactionPending: deposit initiated, provider confirmation not received.
	// The wallet balance is untouched while a transaction is pending.
	TransactionPending = "pending"

	// TransactionConfirmed: the amount is reflected in the wallet balance.
	// Debits and admin adjustments are created confirmed.
	TransactionConfirmed = "confirmed"

	// TransactionFailed: the provider reported the payment failed. The row is
	// kept for the audit trail; the balance was never moved.
	TransactionFailed = "failed"
)

// Transaction is one immutable ledger entry. BalanceBefore/BalanceAfter
// snapshot the wallet balance around this entry, so the whole chain for a
// wallet can be replayed and verified: after_N == before_N + amount and
// before_N == after_{N-1}.
type Transaction struct {
	ID            uuid.UUID
	WalletID      uuid.UUID
	CreatedAt     time.Time
	Type          string
	Status        string
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Description   string

	// ReferenceID correlates the entry with an external system, e.g. the
	// payment provider session or payment id.
	ReferenceID *string

	// AdminID and AdminNote are set for ADMIN_ADJUSTMENT entries only.
	AdminID   *uuid.UUID
	AdminNote *string
}

// Applied reports whether the entry is reflected in the wallet balance.
func (t Transaction) Applied() bool {
	return t.Status == TransactionConfirmed
}
