package models

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent records one billable engagement between a client and an offer.
// At most one event may exist per (OfferID, ClientID) pair; the row itself is
// the dedup record that prevents billing a client's repeat views.
type ClickEvent struct {
	ID             uuid.UUID
	OfferID        uuid.UUID
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	TransactionID  *uuid.UUID
	ClickedAt      time.Time
}
