package policy

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Bound is an inclusive numeric range for one tool argument. A nil side
// leaves that side unchecked.
type Bound struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Violation describes one out-of-range argument.
type Violation struct {
	Tool      string
	Parameter string
	Value     float64
	Message   string
}

func (v Violation) String() string { return v.Message }

// ParameterBoundsValidator checks numeric tool arguments against configured
// per-tool ranges. Bounds are opt-in: tools and arguments without an entry
// are not checked, and non-numeric values are ignored (type checking belongs
// to the caller producing the arguments).
type ParameterBoundsValidator struct {
	bounds map[string]map[string]Bound

	log *slog.Logger
}

func NewParameterBoundsValidator(bounds map[string]map[string]Bound, log *slog.Logger) *ParameterBoundsValidator {
	if log == nil {
		log = slog.Default()
	}
	m := make(map[string]map[string]Bound, len(bounds))
	for tool, params := range bounds {
		pc := make(map[string]Bound, len(params))
		for name, b := range params {
			pc[name] = b
		}
		m[tool] = pc
	}
	return &ParameterBoundsValidator{bounds: m, log: log}
}

func (v *ParameterBoundsValidator) Validate(toolName string, args map[string]any) []Violation {
	if v == nil {
		return nil
	}
	bounds := v.bounds[toolName]
	if len(bounds) == 0 {
		return nil
	}

	var out []Violation
	for name, b := range bounds {
		raw, ok := args[name]
		if !ok {
			continue
		}
		val, ok := asFloat(raw)
		if !ok {
			continue
		}
		if b.Min != nil && val < *b.Min {
			out = append(out, Violation{
				Tool:      toolName,
				Parameter: name,
				Value:     val,
				Message: fmt.Sprintf("parameter %q value %v is below minimum allowed value %v for tool %q",
					name, val, *b.Min, toolName),
			})
		}
		if b.Max != nil && val > *b.Max {
			out = append(out, Violation{
				Tool:      toolName,
				Parameter: name,
				Value:     val,
				Message: fmt.Sprintf("parameter %q value %v exceeds maximum allowed value %v for tool %q",
					name, val, *b.Max, toolName),
			})
		}
	}

	if len(out) > 0 {
		msgs := make([]string, 0, len(out))
		for _, viol := range out {
			msgs = append(msgs, viol.Message)
		}
		v.log.Warn("parameter_bounds_violations", "tool", toolName, "violations", msgs)
	}
	return out
}

// asFloat accepts the numeric shapes that survive JSON decoding of tool
// arguments. Everything else is left to the tool layer.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
