package policy

import (
	"encoding/json"
	"testing"
)

func TestParameterBounds(t *testing.T) {
	v := NewParameterBoundsValidator(DefaultConfig().Bounds, nil)

	cases := []struct {
		name       string
		tool       string
		args       map[string]any
		violations int
	}{
		{"within_bounds", "calculate_deductions", map[string]any{"gross_pay": 5000.0}, 0},
		{"at_min", "calculate_deductions", map[string]any{"gross_pay": 0.0}, 0},
		{"below_min", "calculate_deductions", map[string]any{"gross_pay": -1.0}, 1},
		{"above_max", "calculate_deductions", map[string]any{"gross_pay": 2_000_000.0}, 1},
		{"int_value", "calculate_deductions", map[string]any{"gross_pay": 2_000_000}, 1},
		{"json_number", "calculate_deductions", map[string]any{"gross_pay": json.Number("1500000")}, 1},
		{"non_numeric_ignored", "calculate_deductions", map[string]any{"gross_pay": "a lot"}, 0},
		{"missing_param", "calculate_deductions", map[string]any{}, 0},
		{"unbounded_tool", "get_employee_info", map[string]any{"employee_id": -5}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Validate(tc.tool, tc.args)
			if len(got) != tc.violations {
				t.Fatalf("Validate(%q, %v) = %d violations (%v), want %d", tc.tool, tc.args, len(got), got, tc.violations)
			}
		})
	}
}

func TestParameterBoundsBothSides(t *testing.T) {
	v := NewParameterBoundsValidator(map[string]map[string]Bound{
		"adjust_salary": {"delta": {Min: fptr(-10_000), Max: fptr(10_000)}},
	}, nil)

	if got := v.Validate("adjust_salary", map[string]any{"delta": -50_000.0}); len(got) != 1 {
		t.Fatalf("expected one violation, got %v", got)
	}
	got := v.Validate("adjust_salary", map[string]any{"delta": 9_999.0})
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}
