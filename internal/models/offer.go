package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer is the minimal projection of the marketplace offer the billing core
// needs: who owns it and whether the owner has seen the engagement.
type Offer struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Title          string
	Viewed         bool
	CreatedAt      time.Time
}
