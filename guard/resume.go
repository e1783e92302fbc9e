package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/checkpoint"
	"github.com/finchly/payguard/policy"
)

// ErrHashMismatch: the pending action in the restored state no longer
// matches the hash the approval was granted for. The action is never run.
var ErrHashMismatch = errors.New("approved action hash mismatch")

// Executor runs the single approved action. It is invoked at most once per
// Resume call.
type Executor func(ctx context.Context, a Action) (map[string]any, error)

// ResumeOutcome reports what Resume did. Output is set only when the
// executor actually ran.
type ResumeOutcome struct {
	Status    approval.Status
	RiskLevel policy.RiskLevel
	Action    Action
	Vars      map[string]any
	Output    map[string]any
}

// Resume continues an execution that was suspended for approval. Pending
// approvals return without running anything; rejected ones report the
// rejection so the caller can abandon the run. An approved action is
// re-verified against its hash binding before the executor runs.
func (g *Gate) Resume(ctx context.Context, approvalID string, exec Executor) (ResumeOutcome, error) {
	if exec == nil {
		return ResumeOutcome{}, fmt.Errorf("resume requires an executor")
	}
	id := strings.TrimSpace(approvalID)
	if id == "" {
		return ResumeOutcome{}, approval.ErrNotFound
	}
	rec, err := g.approvals.Get(ctx, id)
	if err != nil {
		return ResumeOutcome{}, err
	}

	switch rec.Status {
	case approval.StatusPending:
		return ResumeOutcome{Status: approval.StatusPending, RiskLevel: rec.RiskLevel}, nil
	case approval.StatusRejected:
		g.log.Info("resume_rejected",
			"approval_id", rec.ID,
			"execution_id", rec.ExecutionID,
			"decided_by", rec.DecidedBy,
		)
		return ResumeOutcome{Status: approval.StatusRejected, RiskLevel: rec.RiskLevel}, nil
	case approval.StatusApproved:
	default:
		return ResumeOutcome{}, fmt.Errorf("unexpected approval status %q", rec.Status)
	}

	cp, err := g.checkpoints.LoadLatest(ctx, rec.ThreadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return ResumeOutcome{}, fmt.Errorf("approval %s has no checkpointed state: %w", rec.ID, err)
		}
		return ResumeOutcome{}, err
	}
	rs, err := unmarshalRunState(cp.State)
	if err != nil {
		return ResumeOutcome{}, err
	}

	h, err := ActionHash(rs.PendingAction)
	if err != nil {
		return ResumeOutcome{}, err
	}
	if strings.TrimSpace(rec.ActionHash) != "" && rec.ActionHash != h {
		ev := approval.NewAuditEvent(approval.AuditResumeRefused)
		ev.ApprovalID = rec.ID
		ev.ExecutionID = rec.ExecutionID
		ev.ToolName = rs.PendingAction.ToolName
		ev.RiskLevel = rec.RiskLevel
		ev.Reasons = []string{"action hash does not match approval binding"}
		if aerr := g.audit.Emit(ctx, ev); aerr != nil {
			g.log.Warn("audit_emit_failed", "error", aerr)
		}
		return ResumeOutcome{}, fmt.Errorf("%w: approval %s", ErrHashMismatch, rec.ID)
	}

	out, err := exec(ctx, rs.PendingAction)
	if err != nil {
		return ResumeOutcome{}, fmt.Errorf("execute approved action: %w", err)
	}

	g.log.Info("resume_executed",
		"approval_id", rec.ID,
		"execution_id", rec.ExecutionID,
		"thread_id", rec.ThreadID,
		"tool", rs.PendingAction.ToolName,
	)
	ev := approval.NewAuditEvent(approval.AuditResumeExecuted)
	ev.ApprovalID = rec.ID
	ev.ExecutionID = rec.ExecutionID
	ev.ToolName = rs.PendingAction.ToolName
	ev.RiskLevel = rec.RiskLevel
	ev.Actor = rec.DecidedBy
	if aerr := g.audit.Emit(ctx, ev); aerr != nil {
		g.log.Warn("audit_emit_failed", "error", aerr)
	}

	return ResumeOutcome{
		Status:    approval.StatusApproved,
		RiskLevel: rec.RiskLevel,
		Action:    rs.PendingAction,
		Vars:      rs.Vars,
		Output:    out,
	}, nil
}
