package policy

import (
	"log/slog"
	"sort"
)

// ToolAccessPolicy is a per-agent-role allow-list of callable tools.
// Anything not explicitly listed is denied, including every tool for an
// unknown role.
type ToolAccessPolicy struct {
	allowlist map[string]map[string]bool

	log *slog.Logger
}

func NewToolAccessPolicy(allowlist map[string][]string, log *slog.Logger) *ToolAccessPolicy {
	if log == nil {
		log = slog.Default()
	}
	m := make(map[string]map[string]bool, len(allowlist))
	for role, tools := range allowlist {
		set := make(map[string]bool, len(tools))
		for _, t := range tools {
			set[t] = true
		}
		m[role] = set
	}
	return &ToolAccessPolicy{allowlist: m, log: log}
}

// IsAllowed reports whether the agent role may call the tool. Every denial is
// audit-logged with the role's full allow-list for post-hoc review.
func (p *ToolAccessPolicy) IsAllowed(agentRole, toolName string) bool {
	if p == nil {
		return false
	}
	set, known := p.allowlist[agentRole]
	if known && set[toolName] {
		return true
	}
	p.log.Warn("tool_access_denied",
		"agent_role", agentRole,
		"role_known", known,
		"tool", toolName,
		"allowed_tools", p.AllowedTools(agentRole),
	)
	return false
}

// AllowedTools returns the sorted allow-list for the role; empty for unknown
// roles. Useful for binding only permitted tools to an agent.
func (p *ToolAccessPolicy) AllowedTools(agentRole string) []string {
	if p == nil {
		return nil
	}
	set := p.allowlist[agentRole]
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
