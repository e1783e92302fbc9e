package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a policy file and overlays it on the built-in defaults.
// Sections absent from the file keep their default tables, so a deployment
// can override just the thresholds without restating the whole matrix.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read policy file: %w", err)
	}

	var overlay Config
	if err := yaml.Unmarshal(b, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse policy file: %w", err)
	}

	cfg := DefaultConfig()
	if len(overlay.Permissions) > 0 {
		cfg.Permissions = overlay.Permissions
	}
	if len(overlay.ToolAllowlist) > 0 {
		cfg.ToolAllowlist = overlay.ToolAllowlist
	}
	if len(overlay.Bounds) > 0 {
		cfg.Bounds = overlay.Bounds
	}
	if overlay.Thresholds != (FinancialThresholds{}) {
		cfg.Thresholds = overlay.Thresholds
	}
	if len(overlay.OperationRisk) > 0 {
		cfg.OperationRisk = overlay.OperationRisk
	}
	return cfg, nil
}
