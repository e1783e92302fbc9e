package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finchly/payguard/policy"
)

const (
	// Resource name approvals are checked against in the permission matrix.
	matrixResource = "approvals"

	// Critical-risk approvals can only be decided by this role, regardless
	// of what the matrix grants.
	criticalDeciderRole = "admin"
)

// Workflow wraps the ledger with the business rules of deciding: argument
// validation, approver authorization, single-decision enforcement and
// decision fan-out.
type Workflow struct {
	store    Store
	matrix   *policy.PermissionMatrix
	notifier Notifier
	audit    AuditSink
	log      *slog.Logger
}

func NewWorkflow(store Store, matrix *policy.PermissionMatrix, notifier Notifier, audit AuditSink, log *slog.Logger) *Workflow {
	if audit == nil {
		audit = NopAuditSink{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{
		store:    store,
		matrix:   matrix,
		notifier: notifier,
		audit:    audit,
		log:      log,
	}
}

// Request records a new pending approval and returns it with its assigned
// id. The caller suspends itself afterwards; nothing here blocks.
func (w *Workflow) Request(ctx context.Context, rec Approval) (Approval, error) {
	if strings.TrimSpace(rec.Type) == "" {
		return Approval{}, fmt.Errorf("%w: missing approval type", ErrInvalidArgument)
	}
	if rec.RiskLevel.Severity() < 0 {
		return Approval{}, fmt.Errorf("%w: unknown risk level %q", ErrInvalidArgument, rec.RiskLevel)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Status = StatusPending

	id, err := w.store.Create(ctx, rec)
	if err != nil {
		return Approval{}, err
	}
	rec.ID = id

	w.log.Info("approval_requested",
		"approval_id", id,
		"execution_id", rec.ExecutionID,
		"approval_type", rec.Type,
		"risk_level", string(rec.RiskLevel),
	)
	ev := NewAuditEvent(AuditApprovalRequested)
	ev.ApprovalID = id
	ev.ExecutionID = rec.ExecutionID
	ev.RiskLevel = rec.RiskLevel
	if err := w.audit.Emit(ctx, ev); err != nil {
		w.log.Warn("audit_emit_failed", "error", err)
	}
	return rec, nil
}

// Decide applies a human decision to a pending approval. The first valid
// decision wins; later attempts get ErrInvalidState. A reason is mandatory
// for both outcomes.
func (w *Workflow) Decide(ctx context.Context, id string, decision Status, actor Actor, reason string) (DecisionSummary, error) {
	switch decision {
	case StatusApproved, StatusRejected:
	default:
		return DecisionSummary{}, fmt.Errorf("%w: decision must be %q or %q", ErrInvalidArgument, StatusApproved, StatusRejected)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return DecisionSummary{}, fmt.Errorf("%w: a decision reason is required", ErrInvalidArgument)
	}

	rec, ok, err := w.store.Get(ctx, id)
	if err != nil {
		return DecisionSummary{}, err
	}
	if !ok {
		return DecisionSummary{}, ErrNotFound
	}

	if err := w.authorize(actor, decision, rec); err != nil {
		return DecisionSummary{}, err
	}

	decidedAt := time.Now().UTC()
	if err := w.store.Decide(ctx, rec.ID, decision, actor.ID, reason, decidedAt); err != nil {
		return DecisionSummary{}, err
	}

	sum := DecisionSummary{
		ApprovalID:     rec.ID,
		ExecutionID:    rec.ExecutionID,
		ThreadID:       rec.ThreadID,
		Type:           rec.Type,
		RiskLevel:      rec.RiskLevel,
		Status:         decision,
		DecidedBy:      actor.ID,
		DecisionReason: reason,
		DecidedAt:      decidedAt,
		Payload:        rec.Payload,
	}

	w.log.Info("approval_decided",
		"approval_id", rec.ID,
		"status", string(decision),
		"decided_by", actor.ID,
		"risk_level", string(rec.RiskLevel),
	)
	ev := NewAuditEvent(AuditApprovalDecided)
	ev.ApprovalID = rec.ID
	ev.ExecutionID = rec.ExecutionID
	ev.RiskLevel = rec.RiskLevel
	ev.Actor = actor.ID
	ev.Decision = string(decision)
	ev.Reasons = []string{reason}
	if err := w.audit.Emit(ctx, ev); err != nil {
		w.log.Warn("audit_emit_failed", "error", err)
	}
	if w.notifier != nil {
		w.notifier.DecisionMade(ctx, sum)
	}
	return sum, nil
}

func (w *Workflow) Get(ctx context.Context, id string) (Approval, error) {
	rec, ok, err := w.store.Get(ctx, id)
	if err != nil {
		return Approval{}, err
	}
	if !ok {
		return Approval{}, ErrNotFound
	}
	return rec, nil
}

func (w *Workflow) ListPending(ctx context.Context) ([]Approval, error) {
	return w.store.ListPending(ctx)
}

// authorize checks the actor against the permission matrix and the
// critical-risk rule. The caller only ever sees ErrAccessDenied; the
// specifics go to the log.
func (w *Workflow) authorize(actor Actor, decision Status, rec Approval) error {
	action := "approve"
	if decision == StatusRejected {
		action = "reject"
	}

	if w.matrix != nil && !w.matrix.Check(actor.Role, matrixResource, action) {
		w.log.Warn("approval_access_denied",
			"approval_id", rec.ID,
			"actor", actor.ID,
			"role", actor.Role,
			"action", action,
			"cause", "matrix",
		)
		return ErrAccessDenied
	}
	if rec.RiskLevel == policy.RiskCritical && actor.Role != criticalDeciderRole {
		w.log.Warn("approval_access_denied",
			"approval_id", rec.ID,
			"actor", actor.ID,
			"role", actor.Role,
			"action", action,
			"cause", "critical_requires_admin",
		)
		return ErrAccessDenied
	}
	return nil
}
