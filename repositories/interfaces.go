package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/models"
)

// ActorRepository handles actor account lookups
type ActorRepository interface {
	// GetByID retrieves an actor by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Actor, error)

	// GetByEmail retrieves an actor by email
	GetByEmail(ctx context.Context, email string) (*models.Actor, error)
}

// SubscriptionRepository resolves the subscription backing an actor's access.
// GetAccess returns (nil, nil) when the actor holds no subscription at all.
type SubscriptionRepository interface {
	// GetAccess retrieves the effective subscription access for an actor,
	// preferring a company-scoped subscription when companyID is set
	GetAccess(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) (*models.SubscriptionAccess, error)
}

// PermissionRepository resolves the permission grants for an actor
type PermissionRepository interface {
	// GetPermissions retrieves the permission strings granted to the actor,
	// scoped to the company when companyID is set
	GetPermissions(ctx context.Context, actorID uuid.UUID, companyID *uuid.UUID) ([]string, error)
}

// ModuleRepository resolves the enabled-module table for a tenant
type ModuleRepository interface {
	// GetModules retrieves the module enablement table for a company
	GetModules(ctx context.Context, companyID uuid.UUID) (models.ModuleTable, error)
}

// CompanyRepository resolves the tenant directory for an actor
type CompanyRepository interface {
	// GetCompanies retrieves the companies an actor belongs to, including
	// which one is currently selected
	GetCompanies(ctx context.Context, actorID uuid.UUID) (*models.CompanyDirectory, error)

	// SetSelected marks one of the actor's companies as the selected tenant
	SetSelected(ctx context.Context, actorID, companyID uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Actors        ActorRepository
	Subscriptions SubscriptionRepository
	Permissions   PermissionRepository
	Modules       ModuleRepository
	Companies     CompanyRepository
}
