package access

import (
	"github.com/upb/access-control-plane/models"
)

// ResolverState is the lifecycle of an asynchronously resolved input
type ResolverState int

const (
	// StateLoading means the resolver has not produced a value yet
	StateLoading ResolverState = iota
	// StateReady means the resolver produced a value for the current scope
	StateReady
	// StateFailed means the fetch failed and no last-known-good value exists
	StateFailed
)

// String returns the state name for logging
func (s ResolverState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// SubscriptionState is the tri-state subscription input
type SubscriptionState struct {
	State  ResolverState
	Access models.SubscriptionAccess
}

// PermissionState is the tri-state permission input
type PermissionState struct {
	State ResolverState
	Set   models.PermissionSet
}

// ModuleState is the tri-state feature-module input
type ModuleState struct {
	State ResolverState
	Table models.ModuleTable
}

// TenantState is the tri-state tenant-presence input
type TenantState struct {
	State     ResolverState
	Selection models.TenantSelection
}

// Snapshot is the immutable bundle of access-relevant facts for a single
// evaluation pass. Evaluators are total functions over it; none of them reads
// ambient state. A decision computed from a snapshot is stable until the
// snapshot is replaced.
type Snapshot struct {
	Authenticated bool
	Identity      models.ActorIdentity
	Tenant        TenantState
	Subscription  SubscriptionState
	Permissions   PermissionState
	Modules       ModuleState
}

// HasActiveSubscription reports whether the subscription input has resolved
// and grants access
func (s *Snapshot) HasActiveSubscription() bool {
	return s.Subscription.State == StateReady && s.Subscription.Access.HasAccess
}

// ModuleEnabled reports whether the named module is available for the selected
// tenant. Fail-closed: loading, failed, or no tenant selected all resolve to
// false.
func (s *Snapshot) ModuleEnabled(moduleID string) bool {
	if s.Modules.State != StateReady {
		return false
	}
	if s.Tenant.State == StateReady && s.Tenant.Selection.SelectedCompanyID == nil {
		return false
	}
	return s.Modules.Table.Enabled(moduleID)
}

// HasPermission resolves a single permission string against the loaded set.
// A still-loading permission set holds nothing.
func (s *Snapshot) HasPermission(permission string) bool {
	if s.Permissions.State != StateReady {
		return false
	}
	return s.Permissions.Set.Has(permission)
}
