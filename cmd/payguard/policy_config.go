package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/finchly/payguard/policy"
)

// policyFromViper starts from the built-in payroll tables and lets the
// config override each section independently, either through a dedicated
// policy file or inline under the policy key.
func policyFromViper() policy.Config {
	cfg := policy.DefaultConfig()

	if path := viper.GetString("policy.file"); path != "" {
		loaded, err := policy.LoadFile(path)
		if err != nil {
			slog.Default().Warn("policy_file_error", "path", path, "error", err.Error())
		} else {
			cfg = loaded
		}
	}

	if viper.IsSet("policy.permissions") {
		var table policy.PermissionTable
		if err := viper.UnmarshalKey("policy.permissions", &table); err == nil && len(table) > 0 {
			cfg.Permissions = table
		}
	}
	if viper.IsSet("policy.tool_allowlist") {
		var allow map[string][]string
		if err := viper.UnmarshalKey("policy.tool_allowlist", &allow); err == nil && len(allow) > 0 {
			cfg.ToolAllowlist = allow
		}
	}
	if viper.IsSet("policy.parameter_bounds") {
		var bounds map[string]map[string]policy.Bound
		if err := viper.UnmarshalKey("policy.parameter_bounds", &bounds); err == nil && len(bounds) > 0 {
			cfg.Bounds = bounds
		}
	}
	if viper.IsSet("policy.financial_thresholds.medium") {
		cfg.Thresholds.Medium = viper.GetFloat64("policy.financial_thresholds.medium")
	}
	if viper.IsSet("policy.financial_thresholds.high") {
		cfg.Thresholds.High = viper.GetFloat64("policy.financial_thresholds.high")
	}
	if viper.IsSet("policy.financial_thresholds.critical") {
		cfg.Thresholds.Critical = viper.GetFloat64("policy.financial_thresholds.critical")
	}
	if viper.IsSet("policy.operation_risk") {
		var risks map[string]policy.RiskLevel
		if err := viper.UnmarshalKey("policy.operation_risk", &risks); err == nil && len(risks) > 0 {
			cfg.OperationRisk = risks
		}
	}
	return cfg
}

func matrixFromViper() *policy.PermissionMatrix {
	return policy.NewPermissionMatrix(policyFromViper().Permissions)
}

func classifierFromViper(log *slog.Logger) *policy.RiskClassifier {
	cfg := policyFromViper()
	return policy.NewRiskClassifier(cfg.OperationRisk, cfg.Thresholds, log)
}
