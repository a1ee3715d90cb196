package models

import "github.com/google/uuid"

// Company is a tenant the actor belongs to
type Company struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CompanyDirectory is the resolved tenant listing for an actor: the selected
// tenant (if any) and the full list.
type CompanyDirectory struct {
	SelectedID *uuid.UUID `json:"selected_id,omitempty"`
	Companies  []Company  `json:"companies"`
}

// Selection converts the directory into the TenantSelection consumed by the
// access evaluators
func (d CompanyDirectory) Selection() TenantSelection {
	return TenantSelection{
		SelectedCompanyID: d.SelectedID,
		CompanyCount:      len(d.Companies),
	}
}
