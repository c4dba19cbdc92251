package models

import "github.com/google/uuid"

const (
	RoleClient       = "client"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// User is the authenticated caller as asserted by the external identity
// provider's token. The core never stores credentials; it only trusts the
// verified claims.
type User struct {
	ID   uuid.UUID
	Role string
}
