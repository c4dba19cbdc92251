package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
)

type ClickEventRepo struct {
	DB DBTX
}

// Insert the event unless the (offer_id, client_id) pair exists already.
// Either way the surviving row comes back, so the race loser adopts the
// winner's event instead of erroring.
const createClickEvent = `-- name: CreateClickEvent
WITH insert_event AS (
	INSERT INTO click_events (id, offer_id, client_id, professional_id, transaction_id, clicked_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (offer_id, client_id) DO NOTHING
	RETURNING *
)
SELECT * FROM insert_event
UNION
SELECT * FROM click_events WHERE offer_id = $2 AND client_id = $3
`

func (r *ClickEventRepo) Create(ctx context.Context, event models.ClickEvent) (models.ClickEvent, bool, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createClickEvent,
		event.ID, event.OfferID, event.ClientID, event.ProfessionalID, event.TransactionID, event.ClickedAt,
	)
	ev, err := pgx.CollectOneRow(rows, rowToClickEvent)
	switch {
	case err == nil:
		return ev, ev.ID == event.ID, nil
	case errors.Is(err, pgx.ErrNoRows):
		// A concurrent insert committed mid-statement: the arbiter index made
		// DO NOTHING skip our row, but the statement snapshot predates the
		// winner's commit so the UNION arm saw nothing. A fresh statement
		// gets a fresh snapshot.
		ev, err = r.GetByOfferClient(ctx, event.OfferID, event.ClientID)
		if err != nil {
			return ev, false, fmt.Errorf("click event lost after conflict: %w", err)
		}
		return ev, false, nil
	default:
		return ev, false, fmt.Errorf("db error: %w", err)
	}
}

const getClickEventByOfferClient = `-- name: GetClickEventByOfferClient
SELECT id, offer_id, client_id, professional_id, transaction_id, clicked_at
FROM click_events
WHERE offer_id = $1 AND client_id = $2
`

func (r *ClickEventRepo) GetByOfferClient(ctx context.Context, offerID, clientID uuid.UUID) (models.ClickEvent, error) {
	rows, _ := r.DB.Query(ctx, getClickEventByOfferClient, offerID, clientID)
	ev, err := pgx.CollectOneRow(rows, rowToClickEvent)

	switch {
	case err == nil:
		return ev, nil
	case errors.Is(err, pgx.ErrNoRows):
		return ev, apperrors.ErrClickEventNotFound
	default:
		return ev, fmt.Errorf("db error: %w", err)
	}
}

const setClickEventTransaction = `-- name: SetClickEventTransaction
UPDATE click_events
SET transaction_id = $2
WHERE id = $1
`

func (r *ClickEventRepo) SetTransactionID(ctx context.Context, id uuid.UUID, transactionID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, setClickEventTransaction, id, transactionID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

func rowToClickEvent(row pgx.CollectableRow) (models.ClickEvent, error) {
	var ev models.ClickEvent
	err := row.Scan(&ev.ID, &ev.OfferID, &ev.ClientID, &ev.ProfessionalID, &ev.TransactionID, &ev.ClickedAt)
	return ev, err
}
