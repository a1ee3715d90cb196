package access

import (
	"github.com/upb/access-control-plane/models"
)

// CapabilityChecker resolves permission strings against a loaded set. Defined
// here at the consumer side; implemented by services/permission.
type CapabilityChecker interface {
	// Has is the primitive check against the set
	Has(set models.PermissionSet, permission string) bool

	// CanShowCapability applies the composite view+action rule with optional
	// role bypass
	CanShowCapability(set models.PermissionSet, role models.Role, permission string, noRoleBypass bool) bool
}

// Requirements is the predicate bundle of a navigation node or protected
// route, detached from tree structure so the guard chain and the tree filter
// evaluate the exact same rules.
type Requirements struct {
	RequiredModule     string
	RequiredRoles      []models.Role
	RequiredPermission string
	CustomPredicate    func(models.PermissionLookup) bool
	NoRoleBypass       bool
	AdminOnly          bool
	AdminOwnerOnly     bool
}

// Empty reports whether the bundle carries no requirement at all
func (r Requirements) Empty() bool {
	return r.RequiredModule == "" &&
		len(r.RequiredRoles) == 0 &&
		r.RequiredPermission == "" &&
		r.CustomPredicate == nil &&
		!r.AdminOnly && !r.AdminOwnerOnly
}

// hideCause identifies which check failed, so the feature guard can pick the
// matching redirect target
type hideCause int

const (
	causeNone hideCause = iota
	causeModule
	causeRole
	causePermission
)

// Evaluator applies a Requirements bundle to a snapshot. It is the single
// visibility authority shared by the guard chain and the navigation filter.
type Evaluator struct {
	caps CapabilityChecker
}

// NewEvaluator creates an Evaluator backed by the given capability checker
func NewEvaluator(caps CapabilityChecker) *Evaluator {
	return &Evaluator{caps: caps}
}

// Visible reports whether an actor described by the snapshot satisfies the
// requirements
func (e *Evaluator) Visible(snap *Snapshot, req Requirements) bool {
	ok, _ := e.check(snap, req)
	return ok
}

// check applies the requirement bundle in fixed order: module availability,
// owner/admin flags, required roles, then the permission rule. Module absence
// always hides, regardless of role.
func (e *Evaluator) check(snap *Snapshot, req Requirements) (bool, hideCause) {
	if req.RequiredModule != "" && !snap.ModuleEnabled(req.RequiredModule) {
		return false, causeModule
	}

	role := snap.Identity.Role

	if req.AdminOwnerOnly && !(role.IsPrivileged() && snap.Identity.IsOwner) {
		return false, causeRole
	}
	if req.AdminOnly && !role.IsPrivileged() {
		return false, causeRole
	}
	if len(req.RequiredRoles) > 0 && !containsRole(req.RequiredRoles, role) {
		return false, causeRole
	}

	if req.CustomPredicate != nil {
		if !req.CustomPredicate(snap.HasPermission) {
			return false, causePermission
		}
		return true, causeNone
	}

	if req.RequiredPermission != "" {
		set := snap.Permissions.Set
		if snap.Permissions.State != StateReady {
			set = nil
		}
		if !e.caps.CanShowCapability(set, role, req.RequiredPermission, req.NoRoleBypass) {
			return false, causePermission
		}
	}

	return true, causeNone
}

func containsRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
