package approval

import (
	"context"
	"time"

	"github.com/finchly/payguard/policy"
)

// Audit event kinds.
const (
	AuditToolDenied        = "tool_denied"
	AuditBoundsViolation   = "bounds_violation"
	AuditApprovalRequested = "approval_requested"
	AuditApprovalDecided   = "approval_decided"
	AuditResumeExecuted    = "resume_executed"
	AuditResumeRefused     = "resume_refused"
)

// AuditEvent is one line of the governance trail. Summary must already be
// redacted by the caller; the sink writes it verbatim.
type AuditEvent struct {
	EventID     string           `json:"event_id"`
	Timestamp   time.Time        `json:"ts"`
	Kind        string           `json:"kind"`
	ExecutionID string           `json:"execution_id,omitempty"`
	ToolName    string           `json:"tool_name,omitempty"`
	RiskLevel   policy.RiskLevel `json:"risk_level,omitempty"`
	ApprovalID  string           `json:"approval_id,omitempty"`
	Actor       string           `json:"actor,omitempty"`
	Decision    string           `json:"decision,omitempty"`
	Reasons     []string         `json:"reasons,omitempty"`
	Summary     string           `json:"summary,omitempty"`
}

type AuditSink interface {
	Emit(ctx context.Context, e AuditEvent) error
}

// NopAuditSink discards events. Used when no audit path is configured.
type NopAuditSink struct{}

func (NopAuditSink) Emit(ctx context.Context, e AuditEvent) error { return nil }

func NewAuditEvent(kind string) AuditEvent {
	return AuditEvent{
		EventID:   "evt_" + randHex(8),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
	}
}
