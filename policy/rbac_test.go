package policy

import (
	"reflect"
	"testing"
)

func TestPermissionMatrixCheck(t *testing.T) {
	m := NewPermissionMatrix(DefaultConfig().Permissions)

	cases := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"admin_delete_payroll", "admin", "payroll", "delete", true},
		{"manager_delete_payroll", "manager", "payroll", "delete", false},
		{"manager_approve", "manager", "approvals", "approve", true},
		{"employee_view_own", "employee", "employees", "view_own", true},
		{"employee_view_all", "employee", "employees", "view_all", false},
		{"unknown_role", "contractor", "payroll", "view", false},
		{"unknown_resource", "admin", "warehouse", "view", false},
		{"unknown_action", "admin", "payroll", "teleport", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Check(tc.role, tc.resource, tc.action); got != tc.want {
				t.Fatalf("Check(%q, %q, %q) = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
			}
		})
	}
}

func TestAllowedActions(t *testing.T) {
	m := NewPermissionMatrix(DefaultConfig().Permissions)

	got := m.AllowedActions("manager", "payroll")
	want := []string{"approve", "create", "reject", "run", "view"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AllowedActions(manager, payroll) = %v, want %v", got, want)
	}

	if got := m.AllowedActions("contractor", "payroll"); len(got) != 0 {
		t.Fatalf("unknown role should have no actions, got %v", got)
	}
	if got := m.AllowedActions("admin", "warehouse"); len(got) != 0 {
		t.Fatalf("unknown resource should have no actions, got %v", got)
	}
}

func TestPermissionMatrixCopiesInput(t *testing.T) {
	table := PermissionTable{
		"admin": {"payroll": {"view": true}},
	}
	m := NewPermissionMatrix(table)
	table["admin"]["payroll"]["view"] = false

	if !m.Check("admin", "payroll", "view") {
		t.Fatal("matrix must not observe mutations of the source table")
	}
}
