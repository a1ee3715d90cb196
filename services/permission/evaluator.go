package permission

import (
	"github.com/upb/access-control-plane/models"
	"go.uber.org/zap"
)

// Evaluator answers permission questions for a given actor. It is stateless
// over the rule table: the permission set and role arrive with every call, so
// the evaluator never reads ambient session state.
type Evaluator struct {
	rules  map[string]CategoryRule
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator with the default category rule table
func NewEvaluator(logger *zap.Logger) *Evaluator {
	return NewEvaluatorWithRules(DefaultRules(), logger)
}

// NewEvaluatorWithRules creates an Evaluator with a custom rule table
func NewEvaluatorWithRules(rules map[string]CategoryRule, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		rules:  rules,
		logger: logger,
	}
}

// Has is the primitive check: does the set contain the permission string
func (e *Evaluator) Has(set models.PermissionSet, permission string) bool {
	return set.Has(permission)
}

// CanShowCapability applies the composite view+action rule.
//
// The category is derived from the permission string. A mapped category
// requires at least one of its view permissions plus, when the category has
// actions, at least one action permission: a read-only view over actions the
// actor cannot perform must not expose an entry point. Unmapped categories
// fall back to the primitive check.
//
// Unless noRoleBypass is set, admin and master satisfy the rule
// unconditionally; for legacy screens the role itself is the capability
// grant.
func (e *Evaluator) CanShowCapability(set models.PermissionSet, role models.Role, permission string, noRoleBypass bool) bool {
	if !noRoleBypass && role.IsPrivileged() {
		return true
	}

	category := models.PermissionCategory(permission)
	rule, mapped := e.rules[category]
	if !mapped {
		return set.Has(permission)
	}

	if !set.HasAny(rule.View) {
		return false
	}
	if len(rule.Actions) > 0 && !set.HasAny(rule.Actions) {
		e.logger.Debug("capability hidden: view without action",
			zap.String("permission", permission),
			zap.String("category", category))
		return false
	}
	return true
}
