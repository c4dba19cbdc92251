package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/proconnect/prowallet/internal/logger"
)

const defaultTimeout = 10 * time.Second

const (
	CodeDeclined = "declined"
	CodeTimeout  = "timeout"
	CodeUnknown  = "unknown"
)

// ProviderError wraps every failure talking to the payment provider with a
// coarse code the deposit workflow can branch on.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: code: %s, error: %v", e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(code string, err error) *ProviderError {
	return &ProviderError{Code: code, Err: err}
}

// CheckoutSession is the provider-side payment session the user is redirected
// to. SessionID becomes the pending transaction's reference.
type CheckoutSession struct {
	SessionID string `json:"id"`
	URL       string `json:"url"`
}

type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string

	// Timeout bounds every outbound call. A timed-out session create is NOT
	// an aborted one: the provider may still have the session, which is why
	// the caller keeps its pending transaction around.
	Timeout time.Duration
}

type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret []byte
	timeout       time.Duration

	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: []byte(cfg.WebhookSecret),
		timeout:       cfg.Timeout,
		client:        &http.Client{},
		logger:        l,
	}
}

// CreateCheckoutSession asks the provider for a hosted payment page for the
// given amount. correlationID travels in the session metadata and comes back
// in webhook events, tying the provider's payment to our pending transaction.
func (c *Client) CreateCheckoutSession(ctx context.Context, amountCents int64, correlationID string) (CheckoutSession, error) {
	var session CheckoutSession

	body, err := json.Marshal(map[string]any{
		"amount":   amountCents,
		"currency": "eur",
		"metadata": map[string]string{"transaction_id": correlationID},
	})
	if err != nil {
		return session, NewProviderError(CodeUnknown, fmt.Errorf("failed to encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return session, NewProviderError(CodeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		code := CodeUnknown
		if ctx.Err() == context.DeadlineExceeded {
			code = CodeTimeout
		}
		return session, NewProviderError(code, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
			return session, NewProviderError(CodeUnknown, fmt.Errorf("failed to decode response: %w", err))
		}

		c.logger.Debug("Checkout session created", "session_id", session.SessionID, "amount", amountCents)
		return session, nil
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return session, NewProviderError(CodeDeclined, fmt.Errorf("provider declined session for %d cents", amountCents))
	default:
		c.logger.Warn("Unexpected provider response", "status_code", resp.StatusCode)
		return session, NewProviderError(CodeUnknown, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}
