package models

// PermissionLookup resolves a single permission string against the current
// actor's permission set. Passed to custom node predicates so they never touch
// ambient state.
type PermissionLookup func(permission string) bool

// NavigationNode is one node of the static navigation tree. Group nodes carry
// children; leaf nodes carry a path and a predicate bundle deciding whether
// the current actor may see them.
type NavigationNode struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Path     string           `json:"path,omitempty"`
	Children []NavigationNode `json:"children,omitempty"`

	// Predicate bundle. Zero values mean "no requirement".
	RequiredPermission string                        `json:"-"`
	RequiredRoles      []Role                        `json:"-"`
	RequiredModule     string                        `json:"-"`
	CustomPredicate    func(PermissionLookup) bool   `json:"-"`
	NoRoleBypass       bool                          `json:"-"`
	AdminOnly          bool                          `json:"-"`
	AdminOwnerOnly     bool                          `json:"-"`

	// DisplayGroup is the menu section label. Top-level nodes without a group
	// survive filtering but are excluded from the rendered menu.
	DisplayGroup string `json:"-"`
}

// IsGroup reports whether the node is a group header rather than a leaf
func (n NavigationNode) IsGroup() bool {
	return len(n.Children) > 0
}

// MenuSection is a rendered menu section: a display group label and the
// surviving nodes assigned to it, in first-seen order.
type MenuSection struct {
	Group string           `json:"group"`
	Nodes []NavigationNode `json:"nodes"`
}
