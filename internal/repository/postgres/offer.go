package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/proconnect/prowallet/internal/apperrors"
	"github.com/proconnect/prowallet/internal/models"
)

type OfferRepo struct {
	DB DBTX
}

const createOffer = `-- name: CreateOffer
INSERT INTO offers (id, professional_id, title, viewed, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, professional_id, title, viewed, created_at
`

func (r *OfferRepo) Create(ctx context.Context, offer models.Offer) (models.Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createOffer, offer.ID, offer.ProfessionalID, offer.Title, offer.Viewed, offer.CreatedAt)
	o, err := pgx.CollectOneRow(rows, rowToOffer)
	if err != nil {
		return o, fmt.Errorf("db error: %w", err)
	}

	return o, nil
}

const getOfferByID = `-- name: GetOfferByID
SELECT id, professional_id, title, viewed, created_at
FROM offers
WHERE id = $1
`

func (r *OfferRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Offer, error) {
	rows, _ := r.DB.Query(ctx, getOfferByID, id)
	o, err := pgx.CollectOneRow(rows, rowToOffer)

	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, pgx.ErrNoRows):
		return o, apperrors.ErrOfferNotFound
	default:
		return o, fmt.Errorf("db error: %w", err)
	}
}

const markOfferViewed = `-- name: MarkOfferViewed
UPDATE offers
SET viewed = TRUE
WHERE id = $1
`

func (r *OfferRepo) MarkViewed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, markOfferViewed, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOfferNotFound
	}

	return nil
}

func rowToOffer(row pgx.CollectableRow) (models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.ProfessionalID, &o.Title, &o.Viewed, &o.CreatedAt)
	return o, err
}
