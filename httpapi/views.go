package httpapi

import (
	"time"

	"github.com/finchly/payguard/approval"
)

// ApprovalView is the wire shape of an approval. Timestamps are RFC 3339 in
// UTC; decided fields are omitted while the approval is pending.
type ApprovalView struct {
	ID          string         `json:"id"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Type        string         `json:"approval_type"`
	RiskLevel   string         `json:"risk_level"`
	Status      string         `json:"status"`
	Payload     map[string]any `json:"payload,omitempty"`

	RequestedBy    string `json:"requested_by,omitempty"`
	DecidedBy      string `json:"decided_by,omitempty"`
	DecisionReason string `json:"decision_reason,omitempty"`

	CreatedAt string `json:"created_at"`
	DecidedAt string `json:"decided_at,omitempty"`
}

func newApprovalView(rec approval.Approval) ApprovalView {
	v := ApprovalView{
		ID:             rec.ID,
		ExecutionID:    rec.ExecutionID,
		Type:           rec.Type,
		RiskLevel:      string(rec.RiskLevel),
		Status:         string(rec.Status),
		Payload:        rec.Payload,
		RequestedBy:    rec.RequestedBy,
		DecidedBy:      rec.DecidedBy,
		DecisionReason: rec.DecisionReason,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.DecidedAt != nil {
		v.DecidedAt = rec.DecidedAt.UTC().Format(time.RFC3339)
	}
	return v
}
