package policy

import "testing"

func TestToolAccessPolicy(t *testing.T) {
	p := NewToolAccessPolicy(DefaultConfig().ToolAllowlist, nil)

	cases := []struct {
		name string
		role string
		tool string
		want bool
	}{
		{"payroll_allowed", "payroll", "calculate_net_pay", true},
		{"employee_allowed", "employee", "get_leave_balance", true},
		{"employee_denied_payroll_tool", "employee", "calculate_department_payroll", false},
		{"compliance_denied_write", "compliance", "calculate_net_pay", false},
		{"unknown_role", "intern", "get_employee_info", false},
		{"unknown_tool", "payroll", "drop_all_tables", false},
		{"empty_role", "", "get_employee_info", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsAllowed(tc.role, tc.tool); got != tc.want {
				t.Fatalf("IsAllowed(%q, %q) = %v, want %v", tc.role, tc.tool, got, tc.want)
			}
		})
	}
}

func TestAllowedToolsUnknownRoleEmpty(t *testing.T) {
	p := NewToolAccessPolicy(DefaultConfig().ToolAllowlist, nil)
	if got := p.AllowedTools("intern"); len(got) != 0 {
		t.Fatalf("unknown role should have an empty allow-list, got %v", got)
	}
	if got := p.AllowedTools("general"); len(got) != 1 || got[0] != "get_employee_info" {
		t.Fatalf("general allow-list = %v", got)
	}
}
