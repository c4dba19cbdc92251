package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/handlers/render"
	"github.com/proconnect/prowallet/internal/handlers/userctx"
	"github.com/proconnect/prowallet/internal/logger"
	"github.com/proconnect/prowallet/internal/models"
	"github.com/proconnect/prowallet/internal/repository"
)

// transactionJSON is the wire form of a ledger entry, shared by the wallet,
// deposit and admin handlers. Amounts are integer cents.
type transactionJSON struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	AdminNote     *string   `json:"admin_note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTransactionJSON(t models.Transaction) transactionJSON {
	return transactionJSON{
		ID:            t.ID,
		Type:          t.Type,
		Status:        t.Status,
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Description:   t.Description,
		ReferenceID:   t.ReferenceID,
		AdminNote:     t.AdminNote,
		CreatedAt:     t.CreatedAt,
	}
}

func handleWalletSummary(ledgerService ledgerService, l logger.Logger) http.Handler {
	type response struct {
		Balance       int64             `json:"balance"`
		LowBalance    bool              `json:"low_balance"`
		TotalDeposits int64             `json:"total_deposits"`
		TotalSpent    int64             `json:"total_spent"`
		Recent        []transactionJSON `json:"recent_transactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		summary, err := ledgerService.SummaryForUser(r.Context(), user.ID)

		switch {
		case err == nil:
			recent := make([]transactionJSON, 0, len(summary.Recent))
			for _, t := range summary.Recent {
				recent = append(recent, toTransactionJSON(t))
			}
			render.JSON(w, response{
				Balance:       summary.Balance,
				LowBalance:    summary.LowBalance,
				TotalDeposits: summary.TotalDeposits,
				TotalSpent:    summary.TotalSpent,
				Recent:        recent,
			})
		case errors.Is(err, apperrors.ErrProfessionalNotFound):
			render.ServiceError(w, "Professional profile not found", http.StatusNotFound)
		default:
			l.Error("Failed to get wallet summary", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleWalletHistory(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		filter, err := historyFilterFromQuery(r)
		if err != nil {
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
			return
		}

		transactions, err := ledgerService.HistoryForUser(r.Context(), user.ID, filter)

		switch {
		case err == nil:
			out := make([]transactionJSON, 0, len(transactions))
			for _, t := range transactions {
				out = append(out, toTransactionJSON(t))
			}
			render.JSON(w, out)
		case errors.Is(err, apperrors.ErrProfessionalNotFound), errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// historyFilterFromQuery parses "?type=DEPOSIT&type=DEBIT&from=...&to=...
// &limit=...&offset=..." into a repository filter. Dates are RFC 3339.
func historyFilterFromQuery(r *http.Request) (repository.TransactionFilter, error) {
	var filter repository.TransactionFilter
	q := r.URL.Query()

	for _, typ := range q["type"] {
		switch typ {
		case models.TransactionTypeDeposit, models.TransactionTypeDebit, models.TransactionTypeAdminAdjustment:
			filter.Types = append(filter.Types, typ)
		default:
			return filter, errors.New("unknown transaction type: " + typ)
		}
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid 'from' date, expected RFC 3339")
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid 'to' date, expected RFC 3339")
		}
		filter.To = &t
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("invalid 'limit'")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("invalid 'offset'")
		}
		filter.Offset = n
	}

	return filter, nil
}
