package policy

// Config holds every governance policy table. It is assembled once at
// startup (from viper or a yaml policy file) and handed to the component
// constructors; nothing mutates it afterwards.
type Config struct {
	Permissions   PermissionTable             `yaml:"permissions"`
	ToolAllowlist map[string][]string         `yaml:"tool_allowlist"`
	Bounds        map[string]map[string]Bound `yaml:"parameter_bounds"`
	Thresholds    FinancialThresholds         `yaml:"financial_thresholds"`
	OperationRisk map[string]RiskLevel        `yaml:"operation_risk"`
}
