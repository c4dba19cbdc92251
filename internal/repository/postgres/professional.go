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

type ProfessionalRepo struct {
	DB DBTX
}

const createProfessional = `-- name: CreateProfessional
INSERT INTO professionals (id, user_id, display_name, verified, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, display_name, verified, created_at
`

func (r *ProfessionalRepo) Create(ctx context.Context, pro models.Professional) (models.Professional, error) {
	if pro.ID == uuid.Nil {
		pro.ID = uuid.New()
	}
	if pro.CreatedAt.IsZero() {
		pro.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createProfessional, pro.ID, pro.UserID, pro.DisplayName, pro.Verified, pro.CreatedAt)
	p, err := pgx.CollectOneRow(rows, rowToProfessional)
	if err != nil {
		return p, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

const getProfessionalByID = `-- name: GetProfessionalByID
SELECT id, user_id, display_name, verified, created_at
FROM professionals
WHERE id = $1
`

const getProfessionalByUser = `-- name: GetProfessionalByUser
SELECT id, user_id, display_name, verified, created_at
FROM professionals
WHERE user_id = $1
`

func (r *ProfessionalRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Professional, error) {
	return r.get(ctx, getProfessionalByID, id)
}

func (r *ProfessionalRepo) GetByUser(ctx context.Context, userID uuid.UUID) (models.Professional, error) {
	return r.get(ctx, getProfessionalByUser, userID)
}

func (r *ProfessionalRepo) get(ctx context.Context, query string, arg uuid.UUID) (models.Professional, error) {
	rows, _ := r.DB.Query(ctx, query, arg)
	p, err := pgx.CollectOneRow(rows, rowToProfessional)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrProfessionalNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfessional(row pgx.CollectableRow) (models.Professional, error) {
	var p models.Professional
	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Verified, &p.CreatedAt)
	return p, err
}
