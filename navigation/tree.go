package navigation

import (
	"github.com/upb/access-control-plane/access"
	"github.com/upb/access-control-plane/models"
)

// Display groups, in menu order
const (
	GroupOverview       = "Overview"
	GroupWork           = "Work"
	GroupGrowth         = "Growth"
	GroupAdministration = "Administration"
)

// Feature module identifiers gated per tenant
const (
	ModuleRentals      = "rentals"
	ModuleRewards      = "rewards"
	ModuleLeads        = "leads"
	ModuleIntegrations = "integrations"
)

// DefaultTree is the application's static navigation tree. Visibility is
// decided entirely by each node's requirement bundle; the tree itself never
// changes at runtime.
func DefaultTree() []models.NavigationNode {
	return []models.NavigationNode{
		{
			ID:           "dashboard",
			Label:        "Dashboard",
			Path:         access.PathDashboard,
			DisplayGroup: GroupOverview,
		},
		{
			ID:                 "clients",
			Label:              "Clients",
			Path:               "/clients",
			RequiredPermission: "client:view",
			DisplayGroup:       GroupWork,
		},
		{
			ID:                 "rentals",
			Label:              "Rentals",
			Path:               "/rentals",
			RequiredPermission: "rental:view",
			RequiredModule:     ModuleRentals,
			DisplayGroup:       GroupWork,
		},
		{
			ID:           "leads",
			Label:        "Leads",
			DisplayGroup: GroupGrowth,
			Children: []models.NavigationNode{
				{
					ID:                 "leads-board",
					Label:              "Lead Distribution",
					Path:               "/leads",
					RequiredPermission: "lead:view",
					RequiredModule:     ModuleLeads,
				},
				{
					ID:                 "kanban",
					Label:              "Kanban",
					Path:               "/kanban",
					RequiredPermission: "kanban:view",
					RequiredModule:     ModuleLeads,
				},
			},
		},
		{
			ID:                 "rewards",
			Label:              "Rewards",
			Path:               "/rewards",
			RequiredPermission: "reward:view",
			RequiredModule:     ModuleRewards,
			DisplayGroup:       GroupGrowth,
		},
		{
			ID:    "reports",
			Label: "Reports",
			Path:  "/reports",
			// Reports are useful with either a reporting grant or the client
			// export capability.
			CustomPredicate: func(has models.PermissionLookup) bool {
				return has("report:view") || has("client:export")
			},
			DisplayGroup: GroupOverview,
		},
		{
			ID:           "settings",
			Label:        "Settings",
			DisplayGroup: GroupAdministration,
			Children: []models.NavigationNode{
				{
					ID:                 "settings-users",
					Label:              "Users",
					Path:               "/settings/users",
					RequiredPermission: "user:view",
					AdminOnly:          true,
				},
				{
					ID:                 "settings-company",
					Label:              "Company",
					Path:               "/settings/company",
					RequiredPermission: "company:view",
					AdminOnly:          true,
				},
				{
					ID:             "settings-billing",
					Label:          "Billing",
					Path:           "/settings/billing",
					AdminOwnerOnly: true,
				},
				{
					ID:                 "settings-integrations",
					Label:              "Integrations",
					Path:               "/integrations",
					RequiredPermission: "integration:view",
					RequiredModule:     ModuleIntegrations,
					AdminOnly:          true,
				},
				{
					ID:                 "settings-audit",
					Label:              "Audit Log",
					Path:               "/settings/audit",
					RequiredPermission: "audit:view",
					// Explicit grant only: roles do not imply audit access.
					NoRoleBypass: true,
				},
			},
		},
		{
			// Routable but never rendered in the menu: no display group.
			ID:    "profile",
			Label: "Profile",
			Path:  "/profile",
		},
	}
}
