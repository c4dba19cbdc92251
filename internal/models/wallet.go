package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-professional running balance account.
// All amounts are integer cents. Balance may go negative: click billing
// deliberately overdraws instead of blocking the engagement.
type Wallet struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Balance        int64
	TotalDeposits  int64
	TotalSpent     int64
	CreatedAt      time.Time
}

// WalletSummary is the read model exposed to the professional's dashboard.
type WalletSummary struct {
	Balance       int64
	LowBalance    bool
	TotalDeposits int64
	TotalSpent    int64
	Recent        []Transaction
}
