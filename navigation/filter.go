package navigation

import (
	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/models"
	"go.uber.org/zap"
)

// Filter prunes a navigation tree down to what the snapshot's actor may see.
// Filtering is pure: the input tree is never mutated, and the same snapshot
// always yields the same result. Adding a permission or enabling a module can
// only add nodes, never remove previously shown ones.
type Filter struct {
	eval   *access.Evaluator
	logger *zap.Logger
}

// NewFilter creates a Filter backed by the shared visibility evaluator
func NewFilter(eval *access.Evaluator, logger *zap.Logger) *Filter {
	return &Filter{
		eval:   eval,
		logger: logger,
	}
}

// Filter walks the tree post-order and returns a new tree containing only the
// nodes the actor may use
func (f *Filter) Filter(snap *access.Snapshot, nodes []models.NavigationNode) []models.NavigationNode {
	out := make([]models.NavigationNode, 0, len(nodes))
	for _, node := range nodes {
		if kept, ok := f.filterNode(snap, node); ok {
			out = append(out, kept)
		}
	}
	return out
}

// filterNode filters one node. Groups are decided by their children: an empty
// group is dropped, a single survivor is promoted in place of its parent.
// Leaves are decided by the requirement bundle; a leaf with no requirements is
// shown unconditionally.
func (f *Filter) filterNode(snap *access.Snapshot, node models.NavigationNode) (models.NavigationNode, bool) {
	if node.IsGroup() {
		children := f.Filter(snap, node.Children)
		switch len(children) {
		case 0:
			return models.NavigationNode{}, false
		case 1:
			return promoteOnlyChild(node, children[0]), true
		default:
			kept := node
			kept.Children = children
			return kept, true
		}
	}

	if !f.eval.Visible(snap, RequirementsOf(node)) {
		return models.NavigationNode{}, false
	}
	return node, true
}

// promoteOnlyChild replaces a group by its single surviving child. The child
// inherits the parent's display group when it has none, so a lone survivor is
// not orphaned into an unlabeled section.
func promoteOnlyChild(parent, child models.NavigationNode) models.NavigationNode {
	if child.DisplayGroup == "" {
		child.DisplayGroup = parent.DisplayGroup
	}
	return child
}

// Sections filters the tree and groups the surviving top-level nodes by
// display group, preserving first-seen order. Nodes without a display group
// survive filtering but are excluded from the rendered menu.
func (f *Filter) Sections(snap *access.Snapshot, nodes []models.NavigationNode) []models.MenuSection {
	kept := f.Filter(snap, nodes)

	order := make([]string, 0, len(kept))
	byGroup := make(map[string][]models.NavigationNode)
	for _, node := range kept {
		if node.DisplayGroup == "" {
			continue
		}
		if _, seen := byGroup[node.DisplayGroup]; !seen {
			order = append(order, node.DisplayGroup)
		}
		byGroup[node.DisplayGroup] = append(byGroup[node.DisplayGroup], node)
	}

	sections := make([]models.MenuSection, 0, len(order))
	for _, group := range order {
		sections = append(sections, models.MenuSection{
			Group: group,
			Nodes: byGroup[group],
		})
	}
	return sections
}

// RequirementsOf detaches a node's predicate bundle into the form the access
// evaluator understands
func RequirementsOf(node models.NavigationNode) access.Requirements {
	return access.Requirements{
		RequiredModule:     node.RequiredModule,
		RequiredRoles:      node.RequiredRoles,
		RequiredPermission: node.RequiredPermission,
		CustomPredicate:    node.CustomPredicate,
		NoRoleBypass:       node.NoRoleBypass,
		AdminOnly:          node.AdminOnly,
		AdminOwnerOnly:     node.AdminOwnerOnly,
	}
}

// Routes builds a RouteIndex over every leaf in the tree that carries a path.
// The guard chain consults it so a route is protected by exactly the bundle
// that decides its menu visibility.
func Routes(nodes []models.NavigationNode) access.RouteIndex {
	index := make(map[string]access.Requirements)
	collectRoutes(nodes, index)
	return func(path string) (access.Requirements, bool) {
		req, ok := index[path]
		return req, ok
	}
}

// Paths lists every leaf path in the tree, in tree order. The router mounts
// the guarded page endpoints from this list so the guard chain and the route
// table cannot drift apart.
func Paths(nodes []models.NavigationNode) []string {
	var paths []string
	for _, node := range nodes {
		if node.IsGroup() {
			paths = append(paths, Paths(node.Children)...)
			continue
		}
		if node.Path != "" {
			paths = append(paths, node.Path)
		}
	}
	return paths
}

func collectRoutes(nodes []models.NavigationNode, index map[string]access.Requirements) {
	for _, node := range nodes {
		if node.IsGroup() {
			collectRoutes(node.Children, index)
			continue
		}
		if node.Path != "" {
			index[node.Path] = RequirementsOf(node)
		}
	}
}
