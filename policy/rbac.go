package policy

import "sort"

// PermissionTable maps role -> resource -> action -> allowed.
// Absence at any level means denied.
type PermissionTable map[string]map[string]map[string]bool

// PermissionMatrix is the single source of truth for RBAC decisions.
// It is loaded once at startup and never mutated; policy changes go
// through config review and a restart.
type PermissionMatrix struct {
	table PermissionTable
}

func NewPermissionMatrix(table PermissionTable) *PermissionMatrix {
	copied := make(PermissionTable, len(table))
	for role, resources := range table {
		rc := make(map[string]map[string]bool, len(resources))
		for resource, actions := range resources {
			ac := make(map[string]bool, len(actions))
			for action, allowed := range actions {
				ac[action] = allowed
			}
			rc[resource] = ac
		}
		copied[role] = rc
	}
	return &PermissionMatrix{table: copied}
}

// Check reports whether the role may perform the action on the resource.
// Unknown role, resource, or action denies.
func (m *PermissionMatrix) Check(role, resource, action string) bool {
	if m == nil {
		return false
	}
	return m.table[role][resource][action]
}

// AllowedActions returns the sorted list of actions the role may perform on
// the resource. Empty for unknown roles or resources.
func (m *PermissionMatrix) AllowedActions(role, resource string) []string {
	if m == nil {
		return nil
	}
	actions := m.table[role][resource]
	out := make([]string, 0, len(actions))
	for action, allowed := range actions {
		if allowed {
			out = append(out, action)
		}
	}
	sort.Strings(out)
	return out
}
