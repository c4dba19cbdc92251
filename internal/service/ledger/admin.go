package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
)

// AdminCredit manually credits a professional's wallet. The operator enters a
// decimal currency amount; it is converted to cents rounding half away from
// zero (10.005 euro -> 1001 cents).
//
// The wallet must already exist. A missing wallet for a live professional is
// a provisioning bug that should surface, so there is no auto-create here.
func (s *LedgerService) AdminCredit(ctx context.Context, professionalID uuid.UUID, amount decimal.Decimal, note string, adminID uuid.UUID) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("credit of %s: %w", amount, apperrors.ErrAmountNotPositive)
	}

	return s.adminAdjust(ctx, professionalID, toCents(amount), note, adminID)
}

// AdminDebit is the mirror entry: same code path, negated amount.
func (s *LedgerService) AdminDebit(ctx context.Context, professionalID uuid.UUID, amount decimal.Decimal, note string, adminID uuid.UUID) (models.Transaction, error) {
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("debit of %s: %w", amount, apperrors.ErrAmountNotPositive)
	}

	return s.adminAdjust(ctx, professionalID, -toCents(amount), note, adminID)
}

func (s *LedgerService) adminAdjust(ctx context.Context, professionalID uuid.UUID, cents int64, note string, adminID uuid.UUID) (models.Transaction, error) {
	var tr models.Transaction

	wallet, err := s.storage.Wallets().GetByProfessional(ctx, professionalID, false)
	if err != nil {
		return tr, err
	}

	return s.RecordInTx(ctx, RecordParams{
		WalletID:    wallet.ID,
		Amount:      cents,
		Type:        models.TransactionTypeAdminAdjustment,
		Description: "manual adjustment",
		AdminID:     &adminID,
		AdminNote:   &note,
	})
}

// toCents converts a decimal currency amount to integer cents, rounding half
// away from zero. decimal.Round implements exactly that rule.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
