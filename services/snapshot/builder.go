package snapshot

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/services/company"
	"github.com/upb/access-control-plane/services/modules"
	"github.com/upb/access-control-plane/services/permission"
	"github.com/upb/access-control-plane/services/subscription"
	"go.uber.org/zap"
)

// Builder assembles one access.Snapshot per evaluation pass from the four
// resolvers. Each resolver owns its snapshot member; the builder only reads.
type Builder struct {
	subscriptions *subscription.Service
	permissions   *permission.Loader
	modules       *modules.Service
	companies     *company.Service
	logger        *zap.Logger
}

// NewBuilder creates a snapshot builder
func NewBuilder(
	subscriptions *subscription.Service,
	permissions *permission.Loader,
	mods *modules.Service,
	companies *company.Service,
	logger *zap.Logger,
) *Builder {
	return &Builder{
		subscriptions: subscriptions,
		permissions:   permissions,
		modules:       mods,
		companies:     companies,
		logger:        logger,
	}
}

// Build constructs the snapshot for the request's actor. Nil claims produce
// an unauthenticated snapshot: the authentication guard handles the rest. A
// claims payload with a malformed identity counts as unauthenticated too;
// nothing downstream should guess at a broken session.
func (b *Builder) Build(ctx context.Context, claims *auth.Claims) *access.Snapshot {
	if claims == nil {
		return &access.Snapshot{}
	}

	identity, err := claims.Identity()
	if err != nil {
		b.logger.Warn("session claims carry invalid identity", zap.Error(err))
		return &access.Snapshot{}
	}

	tenant := b.companies.Resolve(ctx, identity.ActorID)
	companyID := selectedCompany(tenant, claims)

	return &access.Snapshot{
		Authenticated: true,
		Identity:      identity,
		Tenant:        tenant,
		Subscription:  b.subscriptions.Resolve(ctx, identity, companyID),
		Permissions:   b.permissions.Resolve(ctx, identity.ActorID, companyID),
		Modules:       b.modules.Resolve(ctx, companyID),
	}
}

// selectedCompany prefers the resolved directory's selection; the claims'
// company is only a hint for the window where the directory is unresolved.
func selectedCompany(tenant access.TenantState, claims *auth.Claims) *uuid.UUID {
	if tenant.State == access.StateReady && tenant.Selection.SelectedCompanyID != nil {
		return tenant.Selection.SelectedCompanyID
	}
	if tenant.State != access.StateReady {
		return claims.CompanyID
	}
	return nil
}

// OnTenantSwitch invalidates every tenant-scoped snapshot for the actor.
// Called by the session handler when the selected company changes.
func (b *Builder) OnTenantSwitch(actorID uuid.UUID, previous *uuid.UUID) {
	b.companies.Invalidate(actorID)
	b.permissions.Invalidate(actorID)
	b.subscriptions.InvalidateActor(actorID)
	if previous != nil {
		b.modules.Invalidate(*previous)
	}
}
