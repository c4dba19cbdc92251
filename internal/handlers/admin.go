package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/handlers/render"
	"github.com/proconnect/prowallet/internal/handlers/userctx"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/models"
)

// handleAdminAdjustment credits or debits a professional's wallet manually.
// Amount is in decimal currency units; the sign picks the direction.
func handleAdminAdjustment(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		ProfessionalID uuid.UUID       `json:"professional_id" validate:"required"`
		Amount         decimal.Decimal `json:"amount" validate:"required"`
		Note           string          `json:"note" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		var transaction models.Transaction
		if req.Amount.IsNegative() {
			transaction, err = ledgerService.AdminDebit(r.Context(), req.ProfessionalID, req.Amount.Neg(), req.Note, admin.ID)
		} else {
			transaction, err = ledgerService.AdminCredit(r.Context(), req.ProfessionalID, req.Amount, req.Note, admin.ID)
		}

		switch {
		case err == nil:
			render.JSONWithStatus(w, toTransactionJSON(transaction), http.StatusCreated)
		case errors.Is(err, apperrors.ErrWalletNotFound), errors.Is(err, apperrors.ErrProfessionalNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrAmountNotPositive):
			render.ServiceError(w, "Amount must not be zero", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to apply adjustment", "error", err, "professional_id", req.ProfessionalID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
