package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/handlers/render"
	"github.com/proconnect/prowallet/internal/handlers/userctx"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/service/payment"
)

func handleCreateDeposit(depositService depositService, l logger.Logger) http.Handler {
	type request struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}

	type response struct {
		Transaction transactionJSON `json:"transaction"`
		RedirectURL string          `json:"redirect_url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		initiation, err := depositService.Initiate(r.Context(), user.ID, req.Amount)

		var providerErr *payment.ProviderError
		switch {
		case err == nil:
			render.JSONWithStatus(w, response{
				Transaction: toTransactionJSON(initiation.Transaction),
				RedirectURL: initiation.RedirectURL,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrProfessionalNotFound):
			render.ServiceError(w, "Professional profile not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrNotVerified):
			render.ServiceError(w, "Professional is not verified", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrAmountNotPositive):
			render.ServiceError(w, "Amount must be positive", http.StatusUnprocessableEntity)
		case errors.As(err, &providerErr):
			l.Error("Payment provider rejected checkout", "error", err, "code", providerErr.Code)
			render.ServiceError(w, "Payment provider unavailable", http.StatusBadGateway)
		default:
			l.Error("Failed to initiate deposit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCancelDeposit(depositService depositService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transactionID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			return
		}

		err = depositService.CancelPending(r.Context(), transactionID, user.ID)

		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrNotOwner):
			render.ServiceError(w, "Transaction belongs to another user", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrNotCancellable):
			render.ServiceError(w, "Only pending deposits can be cancelled", http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to cancel deposit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
