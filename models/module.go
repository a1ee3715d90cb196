package models

// ModuleTable maps feature-module identifiers to their enabled state for a
// single tenant. Reloaded whenever the selected tenant changes.
type ModuleTable map[string]bool

// Enabled reports whether the module is present and switched on
func (t ModuleTable) Enabled(moduleID string) bool {
	return t[moduleID]
}

// Clone returns a copy of the table. Published snapshots are read-only; the
// resolver clones before applying alias normalization.
func (t ModuleTable) Clone() ModuleTable {
	out := make(ModuleTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
