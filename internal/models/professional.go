package models

import (
	"time"

	"github.com/google/uuid"
)

// Professional projects the identity provider's view of a service
// professional: which platform user owns the profile and whether the
// verification workflow has cleared them for deposits.
type Professional struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Verified    bool
	CreatedAt   time.Time
}
