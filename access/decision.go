package access

// Well-known redirect targets. Case-sensitive; consumed verbatim by the
// surrounding application's router.
const (
	PathLogin                  = "/login"
	PathSubscriptionPlans      = "/subscription-plans"
	PathSubscriptionManagement = "/subscription-management"
	PathSystemUnavailable      = "/system-unavailable"
	PathCreateFirstCompany     = "/create-first-company"
	PathVerifyingAccess        = "/verifying-access"
	PathDashboard              = "/dashboard"
)

// Reason classifies why a guard redirected
type Reason string

const (
	ReasonUnauthenticated      Reason = "unauthenticated"
	ReasonNoSubscription       Reason = "no_subscription"
	ReasonSubscriptionInactive Reason = "subscription_inactive"
	ReasonSubscriptionExpiring Reason = "subscription_expiring"
	ReasonNoCompany            Reason = "no_company"
	ReasonModuleUnavailable    Reason = "module_unavailable"
	ReasonNotPermitted         Reason = "not_permitted"
)

// Redirect is a deny decision: where to send the actor and why. The target
// path is derived solely from the snapshot, never from UI state.
type Redirect struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// Decision is the outcome of running the guard chain for a route
type Decision struct {
	Allow    bool      `json:"allow"`
	Redirect *Redirect `json:"redirect,omitempty"`
}

// Allowed returns the allow decision
func Allowed() Decision {
	return Decision{Allow: true}
}

// Denied returns a redirect decision
func Denied(path string, reason Reason) Decision {
	return Decision{Allow: false, Redirect: &Redirect{Path: path, Reason: reason}}
}
