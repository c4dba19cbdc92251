package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/proconnect/prowallet/internal/apperrors"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// signatureTolerance bounds how old a signed webhook may be before it is
// rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

// WebhookEvent is the provider callback after boundary validation. Exactly
// one payment-shaped payload exists today; the Type discriminates how the
// reconciler treats it.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		PaymentID string `json:"payment_id"`
		Amount    int64  `json:"amount"`
		Metadata  struct {
			TransactionID string `json:"transaction_id"`
		} `json:"metadata"`
		FailureReason string `json:"failure_reason,omitempty"`
	} `json:"data"`
}

// VerifyWebhook checks the event signature and parses the payload. The
// header carries `t=<unix>,v1=<hex hmac>` where the hmac is SHA-256 over
// "<unix>.<body>" keyed with the shared webhook secret.
//
// An unverifiable event is rejected, never processed: the signature is the
// trust boundary between the provider and the ledger.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (WebhookEvent, error) {
	return verifyWebhook(payload, signatureHeader, c.webhookSecret, time.Now())
}

func verifyWebhook(payload []byte, signatureHeader string, secret []byte, now time.Time) (WebhookEvent, error) {
	var event WebhookEvent

	ts, signature, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return event, fmt.Errorf("%w: %v", apperrors.ErrWebhookSignature, err)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return event, fmt.Errorf("%w: timestamp outside tolerance", apperrors.ErrWebhookSignature)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)

	if !hmac.Equal(signature, mac.Sum(nil)) {
		return event, fmt.Errorf("%w: digest mismatch", apperrors.ErrWebhookSignature)
	}

	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("can't decode verified webhook payload: %w", err)
	}

	switch event.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
	default:
		return event, fmt.Errorf("unsupported webhook event type %q", event.Type)
	}

	if event.Data.Metadata.TransactionID == "" {
		return event, fmt.Errorf("%w: event %s carries no transaction id", apperrors.ErrUnknownPaymentReference, event.ID)
	}

	return event, nil
}

// SignPayload produces the signature header for a payload. The provider does
// this on their side; exported for tests and local tooling.
func SignPayload(payload []byte, secret []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)

	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts int64, signature []byte, err error) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			ts, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp: %w", err)
			}
		case "v1":
			signature, err = hex.DecodeString(value)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature encoding: %w", err)
			}
		}
	}

	if ts == 0 || len(signature) == 0 {
		return 0, nil, fmt.Errorf("header misses timestamp or signature")
	}

	return ts, signature, nil
}
