package apperrors

import (
	"errors"
)

// Sentinel errors for expected domain outcomes. Handlers dispatch on these
// with errors.Is; anything else is treated as an internal fault.
var (
	// Not found
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrOfferNotFound        = errors.New("offer not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrClickEventNotFound   = errors.New("click event not found")

	// Forbidden
	ErrNotOwner      = errors.New("resource belongs to another user")
	ErrAdminRequired = errors.New("administrative privilege required")
	ErrNotVerified   = errors.New("professional is not verified for deposits")

	// Bad request
	ErrAmountNotPositive      = errors.New("amount must be positive")
	ErrNotCancellable         = errors.New("only pending deposit transactions can be cancelled")
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// Conflict: a concurrent creation race fired a unique constraint. Always
	// recovered locally by re-fetching the winning row, never surfaced.
	ErrWalletExists = errors.New("wallet for professional already exists")

	// Reconciliation; the webhook endpoint answers non-2xx on these so the
	// provider redelivers the event.
	ErrUnknownPaymentReference = errors.New("webhook references unknown transaction")
	ErrWebhookSignature        = errors.New("webhook signature verification failed")
)
