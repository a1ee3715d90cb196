package access

import (
	"github.com/upb/access-control-plane/models"
	"go.uber.org/zap"
)

// Route is a guarded route: its path plus the requirement bundle of the
// navigation node that owns it (zero for unlisted routes).
type Route struct {
	Path string
	Requirements
}

// RouteIndex looks up the requirement bundle for a path. The navigation
// package derives one from the static tree so route guarding and menu
// filtering share a single source of truth.
type RouteIndex func(path string) (Requirements, bool)

// Guard is a single policy check. A nil result means "no objection"; a
// non-nil redirect short-circuits the chain.
type Guard func(snap *Snapshot, route Route) *Redirect

// subscriptionExempt lists paths the subscription guard never blocks: auth
// pages, the subscription flow itself, and the bootstrap pages.
var subscriptionExempt = map[string]bool{
	PathLogin:                  true,
	PathSubscriptionPlans:      true,
	PathSubscriptionManagement: true,
	PathVerifyingAccess:        true,
	PathCreateFirstCompany:     true,
}

// companyExempt lists paths reachable by an admin who has not created a
// tenant yet
var companyExempt = map[string]bool{
	PathLogin:                  true,
	PathSubscriptionPlans:      true,
	PathSubscriptionManagement: true,
	PathVerifyingAccess:        true,
	PathCreateFirstCompany:     true,
}

// Chain is the ordered guard composition. Precedence is data: the first guard
// returning a redirect wins and later guards are not evaluated.
type Chain struct {
	eval   *Evaluator
	index  RouteIndex
	guards []Guard
	logger *zap.Logger
}

// NewChain creates the guard chain in its fixed order: authentication,
// subscription, company presence, feature.
func NewChain(eval *Evaluator, index RouteIndex, logger *zap.Logger) *Chain {
	c := &Chain{
		eval:   eval,
		index:  index,
		logger: logger,
	}
	c.guards = []Guard{
		authenticationGuard,
		subscriptionGuard,
		companyRequiredGuard,
		c.featureGuard,
	}
	return c
}

// Evaluator returns the shared visibility evaluator, for consumers that need
// per-node checks consistent with the chain (the navigation filter).
func (c *Chain) Evaluator() *Evaluator {
	return c.eval
}

// Decide runs the chain for the given path and snapshot. It never panics past
// this boundary; the outcome is always a plain decision.
func (c *Chain) Decide(snap *Snapshot, path string) Decision {
	route := Route{Path: path}
	if c.index != nil {
		if req, ok := c.index(path); ok {
			route.Requirements = req
		}
	}

	for _, guard := range c.guards {
		if rd := guard(snap, route); rd != nil {
			c.logger.Debug("route denied",
				zap.String("path", path),
				zap.String("redirect", rd.Path),
				zap.String("reason", string(rd.Reason)),
				zap.String("role", string(snap.Identity.Role)))
			return Decision{Allow: false, Redirect: rd}
		}
	}
	return Allowed()
}

// authenticationGuard denies everything without a valid session. Clearing
// stale session state is the transport layer's job; the decision only names
// the destination.
func authenticationGuard(snap *Snapshot, _ Route) *Redirect {
	if !snap.Authenticated {
		return &Redirect{Path: PathLogin, Reason: ReasonUnauthenticated}
	}
	return nil
}

// subscriptionGuard blocks routes once the subscription has resolved without
// access. Master skips it entirely, as do the exempt paths. Loading and
// failed states allow: an in-flight or unreachable check must never flash a
// wrong redirect, and paid-feature gating stays closed through the module
// table regardless.
func subscriptionGuard(snap *Snapshot, route Route) *Redirect {
	if snap.Identity.Role == models.RoleMaster {
		return nil
	}
	if subscriptionExempt[route.Path] {
		return nil
	}
	if snap.Subscription.State != StateReady {
		return nil
	}

	acc := snap.Subscription.Access
	if !acc.HasAccess {
		return subscriptionRedirect(snap.Identity, acc)
	}

	// Soft nudge: access still holds but the plan needs attention. Only the
	// admin is steered to the management page, and never away from it.
	if acc.NeedsRenewalAttention() &&
		snap.Identity.Role == models.RoleAdmin &&
		route.Path != PathSubscriptionManagement {
		return &Redirect{Path: PathSubscriptionManagement, Reason: ReasonSubscriptionExpiring}
	}
	return nil
}

// subscriptionRedirect resolves the deny destination from the status reason:
// no subscription at all goes to plan selection, an admin with a lapsed plan
// goes to management, everyone else to the unavailable page.
func subscriptionRedirect(identity models.ActorIdentity, acc models.SubscriptionAccess) *Redirect {
	if acc.Status == models.SubscriptionNone {
		return &Redirect{Path: PathSubscriptionPlans, Reason: ReasonNoSubscription}
	}
	if identity.Role == models.RoleAdmin {
		return &Redirect{Path: PathSubscriptionManagement, Reason: ReasonSubscriptionInactive}
	}
	return &Redirect{Path: PathSystemUnavailable, Reason: ReasonSubscriptionInactive}
}

// companyRequiredGuard forces an admin with an active subscription but no
// tenant into the creation flow. Master is never blocked on tenant presence,
// and an unconfirmed tenant check allows to avoid flicker.
func companyRequiredGuard(snap *Snapshot, route Route) *Redirect {
	identity := snap.Identity
	if identity.Role != models.RoleAdmin || !identity.CanCreateCompany {
		return nil
	}
	if snap.Tenant.State != StateReady {
		return nil
	}
	if snap.Tenant.Selection.HasCompany() {
		return nil
	}
	if !snap.HasActiveSubscription() {
		return nil
	}
	if companyExempt[route.Path] {
		return nil
	}
	return &Redirect{Path: PathCreateFirstCompany, Reason: ReasonNoCompany}
}

// featureGuard enforces the per-route requirement bundle through the same
// evaluator the navigation filter uses, so a visible menu entry and an
// enterable route can never disagree.
func (c *Chain) featureGuard(snap *Snapshot, route Route) *Redirect {
	if route.Requirements.Empty() {
		return nil
	}

	role := snap.Identity.Role
	if (role == models.RoleUser || role == models.RoleAdmin) &&
		snap.Subscription.State == StateReady &&
		!snap.Subscription.Access.HasAccess {
		return subscriptionRedirect(snap.Identity, snap.Subscription.Access)
	}

	ok, cause := c.eval.check(snap, route.Requirements)
	if ok {
		return nil
	}

	switch cause {
	case causeModule:
		// A missing paid module resolves like a lapsed subscription for
		// user/admin. Master keeps full navigation except the module-gated
		// item itself, so it lands back on the dashboard.
		if role == models.RoleMaster {
			return &Redirect{Path: PathDashboard, Reason: ReasonModuleUnavailable}
		}
		rd := subscriptionRedirect(snap.Identity, snap.Subscription.Access)
		rd.Reason = ReasonModuleUnavailable
		return rd
	default:
		return &Redirect{Path: PathDashboard, Reason: ReasonNotPermitted}
	}
}
