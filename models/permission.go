package models

import "strings"

// PermissionSet is the set of permission strings held by an actor, each of
// shape "<category>:<action>" (e.g. "client:update"). Loaded once per
// session/tenant change and treated as immutable until reload.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a PermissionSet from a slice of permission strings
func NewPermissionSet(permissions []string) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given permission string
func (s PermissionSet) Has(permission string) bool {
	_, ok := s[permission]
	return ok
}

// HasAny reports whether the set contains at least one of the given permissions
func (s PermissionSet) HasAny(permissions []string) bool {
	for _, p := range permissions {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// List returns the permissions as a slice (order unspecified)
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}

// PermissionCategory returns the substring of a permission before the first
// separator, e.g. "client" for "client:update". Returns the whole string when
// no separator is present.
func PermissionCategory(permission string) string {
	if idx := strings.Index(permission, ":"); idx >= 0 {
		return permission[:idx]
	}
	return permission
}
