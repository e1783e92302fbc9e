package policy

func fptr(v float64) *float64 { return &v }

// DefaultConfig returns the built-in payroll policy tables. Deployments
// override any of these through the policy section of the config file.
func DefaultConfig() Config {
	return Config{
		Permissions: PermissionTable{
			// Admins operate the system: full payroll control, user
			// management, audit access.
			"admin": {
				"payroll": {
					"view": true, "create": true, "run": true,
					"approve": true, "reject": true, "delete": true,
				},
				"employees": {
					"view_all": true, "view_own": true,
					"create": true, "update": true, "delete": true,
				},
				"approvals":  {"view": true, "approve": true, "reject": true},
				"agents":     {"execute": true, "view_logs": true},
				"reports":    {"view": true, "create": true, "export": true},
				"users":      {"view": true, "create": true, "update": true, "deactivate": true},
				"audit_logs": {"view": true},
			},
			// Managers run payroll and decide approvals but cannot manage
			// users or read raw audit logs.
			"manager": {
				"payroll": {
					"view": true, "create": true, "run": true,
					"approve": true, "reject": true, "delete": false,
				},
				"employees": {
					"view_all": true, "view_own": true,
					"create": false, "update": true, "delete": false,
				},
				"approvals":  {"view": true, "approve": true, "reject": true},
				"agents":     {"execute": true, "view_logs": true},
				"reports":    {"view": true, "create": true, "export": true},
				"users":      {"view": false, "create": false, "update": false, "deactivate": false},
				"audit_logs": {"view": false},
			},
			// Employees see their own data and may talk to the chatbot.
			"employee": {
				"payroll": {
					"view": false, "create": false, "run": false,
					"approve": false, "reject": false, "delete": false,
				},
				"employees": {
					"view_all": false, "view_own": true,
					"create": false, "update": false, "delete": false,
				},
				"approvals":  {"view": false, "approve": false, "reject": false},
				"agents":     {"execute": true, "view_logs": false},
				"reports":    {"view": false, "create": false, "export": false},
				"users":      {"view": false, "create": false, "update": false, "deactivate": false},
				"audit_logs": {"view": false},
			},
		},

		ToolAllowlist: map[string][]string{
			"payroll": {
				"get_employee_info",
				"calculate_gross_pay",
				"calculate_deductions",
				"calculate_net_pay",
				"calculate_department_payroll",
				"get_leave_balance",
				"search_employees_by_department",
			},
			"employee": {
				"get_employee_info",
				"get_leave_balance",
				"calculate_net_pay",
			},
			"compliance": {
				"get_employee_info",
				"search_employees_by_department",
				"calculate_department_payroll",
			},
			"general": {
				"get_employee_info",
			},
		},

		Bounds: map[string]map[string]Bound{
			"calculate_deductions": {
				// Negative gross pay is nonsense; a seven-figure monthly
				// gross is almost certainly a hallucinated argument.
				"gross_pay": {Min: fptr(0), Max: fptr(1_000_000)},
			},
		},

		Thresholds: FinancialThresholds{
			Medium:   10_000,
			High:     50_000,
			Critical: 100_000,
		},

		OperationRisk: map[string]RiskLevel{
			"query_employee":      RiskLow,
			"view_payslip":        RiskLow,
			"check_leave_balance": RiskLow,
			"search_employees":    RiskLow,

			"calculate_pay":        RiskMedium,
			"calculate_deductions": RiskMedium,

			"run_department_payroll": RiskHigh,
			"bulk_salary_update":     RiskHigh,

			"process_payroll":    RiskCritical,
			"approve_payroll":    RiskCritical,
			"modify_salary":      RiskCritical,
			"terminate_employee": RiskCritical,
		},
	}
}
