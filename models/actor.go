package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor is the stored account record behind a session
type Actor struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	IsOwner          bool      `json:"is_owner"`
	CanCreateCompany bool      `json:"can_create_company"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Identity projects the stored record onto the session-facing identity
func (a *Actor) Identity() ActorIdentity {
	return ActorIdentity{
		ActorID:          a.ID,
		Role:             a.Role,
		IsOwner:          a.IsOwner,
		CanCreateCompany: a.CanCreateCompany,
	}
}
