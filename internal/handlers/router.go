package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/proconnect/prowallet/internal/handlers/middleware"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
	"github.com/proconnect/prowallet/internal/service/deposit"
	"github.com/proconnect/prowallet/internal/service/payment"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	ledgerService ledgerService,
	billingService billingService,
	depositService depositService,
	webhookVerifier webhookVerifier,
	tokens middleware.TokenVerifier,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.Auth(tokens)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	clientOnly := middleware.RequireRole(models.RoleClient)

	api := http.NewServeMux()

	api.Handle("GET /wallet", withAuth(handleWalletSummary(ledgerService, logger)))
	api.Handle("GET /wallet/transactions", withAuth(handleWalletHistory(ledgerService, logger)))
	api.Handle("POST /wallet/deposits", withAuth(handleCreateDeposit(depositService, logger)))
	api.Handle("DELETE /wallet/deposits/{id}", withAuth(handleCancelDeposit(depositService, logger)))

	api.Handle("POST /clicks", withAuth(clientOnly(handleRecordClick(billingService, logger))))

	api.Handle("POST /admin/adjustments", withAuth(adminOnly(handleAdminAdjustment(ledgerService, logger))))

	// The provider authenticates with a signature header, not a user token.
	api.Handle("POST /webhooks/payment", handlePaymentWebhook(webhookVerifier, depositService, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type ledgerService interface {
	// Wallet read models for the authenticated professional.
	// Has to return apperrors.ErrProfessionalNotFound if the user has no profile
	SummaryForUser(ctx context.Context, userID uuid.UUID) (models.WalletSummary, error)
	HistoryForUser(ctx context.Context, userID uuid.UUID, filter repository.TransactionFilter) ([]models.Transaction, error)

	// Manual corrections. Amount is decimal currency units, not cents.
	// Has to return apperrors.ErrAmountNotPositive for zero or negative amounts
	AdminCredit(ctx context.Context, professionalID uuid.UUID, amount decimal.Decimal, note string, adminID uuid.UUID) (models.Transaction, error)
	AdminDebit(ctx context.Context, professionalID uuid.UUID, amount decimal.Decimal, note string, adminID uuid.UUID) (models.Transaction, error)
}

type billingService interface {
	// Record a billable click and charge the offer's professional. Repeat
	// clicks by the same client return the original event without charging.
	RecordClick(ctx context.Context, offerID uuid.UUID, clientID uuid.UUID) (models.ClickEvent, error)
}

type depositService interface {
	Initiate(ctx context.Context, userID uuid.UUID, amountCents int64) (deposit.Initiation, error)

	// Has to return apperrors.ErrNotCancellable unless the transaction is a
	// pending deposit, and apperrors.ErrNotOwner for another user's deposit
	CancelPending(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID) error

	HandleWebhook(ctx context.Context, event payment.WebhookEvent) error
}

type webhookVerifier interface {
	VerifyWebhook(payload []byte, signatureHeader string) (payment.WebhookEvent, error)
}
