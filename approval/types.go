package approval

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/finchly/payguard/policy"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Approval type categories.
const (
	TypeFinancial  = "financial"
	TypeDataChange = "data_change"
	TypeCompliance = "compliance"
)

var (
	// ErrNotFound: the approval id is unknown.
	ErrNotFound = errors.New("approval not found")
	// ErrInvalidState: a decision was attempted on a non-pending approval.
	// The stored record keeps the first decision.
	ErrInvalidState = errors.New("approval is not pending")
	// ErrInvalidArgument: malformed decision value or missing reason.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAccessDenied: the actor may not decide this approval. Details are
	// logged, never surfaced.
	ErrAccessDenied = errors.New("access denied")
)

// Approval is one durable request for human sign-off. Records are never
// deleted; together they form the audit trail of every paused decision.
//
// DecidedBy, DecisionReason and DecidedAt are all unset exactly while
// Status is pending, and all set once it is not.
type Approval struct {
	ID          string
	ExecutionID string
	ThreadID    string
	Type        string
	RiskLevel   policy.RiskLevel
	Payload     map[string]any

	Status Status

	RequestedBy    string
	DecidedBy      string
	DecisionReason string

	CreatedAt time.Time
	DecidedAt *time.Time

	// ActionHash binds the approval to the exact action that was proposed;
	// resume refuses to run anything else under this approval.
	ActionHash string
}

// DecisionSummary is returned by Decide so the caller can act on the
// outcome, including the original payload.
type DecisionSummary struct {
	ApprovalID     string           `json:"approval_id"`
	ExecutionID    string           `json:"execution_id"`
	ThreadID       string           `json:"thread_id,omitempty"`
	Type           string           `json:"approval_type"`
	RiskLevel      policy.RiskLevel `json:"risk_level"`
	Status         Status           `json:"status"`
	DecidedBy      string           `json:"decided_by"`
	DecisionReason string           `json:"decision_reason"`
	DecidedAt      time.Time        `json:"decided_at"`
	Payload        map[string]any   `json:"payload"`
}

// Actor is the already-authenticated identity making a decision. Identity
// verification happens upstream; this layer only consumes the result.
type Actor struct {
	ID   string
	Role string
}

func newApprovalID() string {
	return "apr_" + randHex(12)
}

func randHex(nbytes int) string {
	if nbytes <= 0 {
		nbytes = 12
	}
	b := make([]byte, nbytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
