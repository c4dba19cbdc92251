package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/handlers/render"
	"github.com/proconnect/prowallet/internal/logger"
)

// SignatureHeader carries the provider's HMAC signature over the raw body.
const SignatureHeader = "Payment-Signature"

const maxWebhookBody = 1 << 20 // 1 MiB

// handlePaymentWebhook receives payment status events from the provider.
// Any non-2xx answer makes the provider retry the delivery, so transient
// failures return 500 and only rejected payloads return 4xx.
func handlePaymentWebhook(verifier webhookVerifier, depositService depositService, l logger.Logger) http.Handler {
	type response struct {
		Received bool `json:"received"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			render.ServiceError(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		event, err := verifier.VerifyWebhook(payload, r.Header.Get(SignatureHeader))
		if err != nil {
			l.Warn("Rejected webhook", "error", err)
			render.ServiceError(w, "Invalid webhook payload", http.StatusBadRequest)
			return
		}

		err = depositService.HandleWebhook(r.Context(), event)

		switch {
		case err == nil:
			render.JSON(w, response{Received: true})
		case errors.Is(err, apperrors.ErrUnknownPaymentReference):
			// Reconciliation problem: the provider knows about a payment we
			// do not. Keep failing so the delivery stays visible on their
			// side until an operator sorts it out.
			l.Error("Webhook references unknown transaction", "error", err, "event_id", event.ID, "payment_id", event.Data.PaymentID)
			render.ServiceError(w, "Unknown payment reference", http.StatusInternalServerError)
		default:
			l.Error("Failed to process webhook", "error", err, "event_id", event.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
