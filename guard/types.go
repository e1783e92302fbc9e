package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/finchly/payguard/policy"
)

type Decision string

const (
	DecisionAllow           Decision = "allow"
	DecisionRequireApproval Decision = "require_approval"
	DecisionDeny            Decision = "deny"
)

// Action is one proposed tool call awaiting a gate decision. Operation maps
// the call onto the risk taxonomy; Amount carries the dollar value for
// financially sensitive calls, zero otherwise.
type Action struct {
	ToolName  string         `json:"tool_name"`
	Params    map[string]any `json:"params,omitempty"`
	Operation string         `json:"operation"`
	Amount    float64        `json:"amount,omitempty"`
}

// Meta identifies the execution proposing an action.
type Meta struct {
	ExecutionID string
	ThreadID    string
	AgentRole   string
	RequestedBy string
	Step        int
	Time        time.Time

	// Vars is caller scratch state carried through suspension and handed
	// back on resume.
	Vars map[string]any
}

// Result is the gate's verdict on one action.
type Result struct {
	Decision  Decision
	RiskLevel policy.RiskLevel
	Reasons   []string

	// Set when Decision is require_approval.
	ApprovalID   string
	CheckpointID string
}

func canonicalJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			ordered = append(ordered, k)
			orderedVal, err := canonicalizeValue(x[k])
			if err != nil {
				return nil, err
			}
			ordered = append(ordered, orderedVal)
		}
		return json.Marshal(ordered)
	default:
		cv, err := canonicalizeValue(v)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cv)
	}
}

func canonicalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			out = append(out, k)
			vv, err := canonicalizeValue(x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vv)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(x))
		for _, vv := range x {
			cv, err := canonicalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case string, float64, bool, nil, int, int64, json.Number:
		return x, nil
	default:
		// Best-effort for JSON-ish values.
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("cannot canonicalize value of type %T", v)
		}
		var y any
		if err := json.Unmarshal(b, &y); err != nil {
			return nil, fmt.Errorf("cannot canonicalize value of type %T", v)
		}
		return canonicalizeValue(y)
	}
}

// ActionHash fingerprints an action over a canonical key-ordered encoding,
// so the same logical action always hashes the same regardless of map
// iteration order.
func ActionHash(a Action) (string, error) {
	payload := map[string]any{
		"tool_name": a.ToolName,
		"operation": a.Operation,
	}
	if a.Params != nil {
		payload["params"] = a.Params
	}
	if a.Amount != 0 {
		payload["amount"] = a.Amount
	}

	b, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func summarizeAction(a Action) string {
	b, err := canonicalJSON(a.Params)
	if err != nil || a.Params == nil {
		return a.ToolName
	}
	return strings.TrimSpace(a.ToolName + " " + string(b))
}
