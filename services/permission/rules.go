package permission

// CategoryRule pairs the view-class permissions of a functional category with
// its action-class permissions. A capability is shown only when the actor
// holds at least one view permission and, for categories with actions, at
// least one action permission. Categories with no actions (audit) are
// read-only by nature and require only view.
type CategoryRule struct {
	View    []string
	Actions []string
}

// DefaultRules is the static category table for the application's functional
// areas. Unmapped categories fall back to the primitive permission check.
func DefaultRules() map[string]CategoryRule {
	return map[string]CategoryRule{
		"client": {
			View:    []string{"client:view"},
			Actions: []string{"client:create", "client:update", "client:delete", "client:export"},
		},
		"rental": {
			View:    []string{"rental:view"},
			Actions: []string{"rental:create", "rental:update", "rental:close", "rental:delete"},
		},
		"reward": {
			View:    []string{"reward:view"},
			Actions: []string{"reward:create", "reward:update", "reward:redeem", "reward:delete"},
		},
		"lead": {
			View:    []string{"lead:view"},
			Actions: []string{"lead:create", "lead:update", "lead:assign", "lead:delete"},
		},
		"kanban": {
			View:    []string{"kanban:view"},
			Actions: []string{"kanban:update", "kanban:move"},
		},
		"user": {
			View:    []string{"user:view"},
			Actions: []string{"user:create", "user:update", "user:delete"},
		},
		"company": {
			View:    []string{"company:view"},
			Actions: []string{"company:update"},
		},
		"integration": {
			View:    []string{"integration:view"},
			Actions: []string{"integration:create", "integration:update", "integration:delete"},
		},
		// Audit is view-only: there is nothing to act on.
		"audit": {
			View: []string{"audit:view"},
		},
	}
}
