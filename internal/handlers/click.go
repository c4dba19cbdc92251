package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/handlers/render"
	"github.com/proconnect/prowallet/internal/handlers/userctx"
	"github.com/proconnect/prowallet/internal/logger"
)

func handleRecordClick(billingService billingService, l logger.Logger) http.Handler {
	type request struct {
		OfferID uuid.UUID `json:"offer_id" validate:"required"`
	}

	type response struct {
		ID             uuid.UUID `json:"id"`
		OfferID        uuid.UUID `json:"offer_id"`
		ProfessionalID uuid.UUID `json:"professional_id"`
		ClickedAt      time.Time `json:"clicked_at"`
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

		event, err := billingService.RecordClick(r.Context(), req.OfferID, user.ID)

		switch {
		case err == nil:
			// Repeat clicks return the original event, so the endpoint is
			// safe for the frontend to call on every view.
			render.JSON(w, response{
				ID:             event.ID,
				OfferID:        event.OfferID,
				ProfessionalID: event.ProfessionalID,
				ClickedAt:      event.ClickedAt,
			})
		case errors.Is(err, apperrors.ErrOfferNotFound):
			render.ServiceError(w, "Offer not found", http.StatusNotFound)
		default:
			l.Error("Failed to record click", "error", err, "offer_id", req.OfferID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
