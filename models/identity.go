package models

import "github.com/google/uuid"

// Role represents the coarse role of an authenticated actor
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleMaster Role = "master"
)

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleMaster:
		return true
	}
	return false
}

// IsPrivileged reports whether the role carries the implicit capability grant
// used by the permission evaluator's role bypass
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleMaster
}

// ActorIdentity holds the access-relevant facts about the current actor.
// It is immutable per session and replaced wholesale on re-authentication.
type ActorIdentity struct {
	ActorID          uuid.UUID `json:"actor_id"`
	Role             Role      `json:"role"`
	IsOwner          bool      `json:"is_owner"`
	CanCreateCompany bool      `json:"can_create_company"`
}

// TenantSelection holds the actor's current tenant ("company") selection.
// Mutated only when the actor switches or creates a tenant.
type TenantSelection struct {
	SelectedCompanyID *uuid.UUID `json:"selected_company_id,omitempty"`
	CompanyCount      int        `json:"company_count"`
}

// HasCompany reports whether the actor belongs to at least one tenant
func (t TenantSelection) HasCompany() bool {
	return t.CompanyCount > 0
}
