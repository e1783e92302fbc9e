package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/checkpoint"
	"github.com/finchly/payguard/guardrail"
	"github.com/finchly/payguard/policy"
)

// accessDeniedReason is the only denial text surfaced to callers. The
// specifics of what was denied and why stay in the logs and audit trail.
const accessDeniedReason = "access denied: this action is not permitted for the requesting role"

// Gate decides, for each proposed tool call, whether it runs now, never, or
// only after a human signs off. The checks run in fixed order: tool
// allow-list, parameter bounds, risk classification.
type Gate struct {
	tools  *policy.ToolAccessPolicy
	bounds *policy.ParameterBoundsValidator
	risk   *policy.RiskClassifier

	approvals   *approval.Workflow
	checkpoints checkpoint.Store
	audit       approval.AuditSink

	// Actions at or above this risk level suspend for approval.
	approvalThreshold policy.RiskLevel

	log *slog.Logger
}

type GateConfig struct {
	Tools       *policy.ToolAccessPolicy
	Bounds      *policy.ParameterBoundsValidator
	Risk        *policy.RiskClassifier
	Approvals   *approval.Workflow
	Checkpoints checkpoint.Store
	Audit       approval.AuditSink

	ApprovalThreshold policy.RiskLevel
	Log               *slog.Logger
}

func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Tools == nil || cfg.Bounds == nil || cfg.Risk == nil {
		return nil, fmt.Errorf("gate requires tool policy, bounds validator and risk classifier")
	}
	if cfg.Approvals == nil || cfg.Checkpoints == nil {
		return nil, fmt.Errorf("gate requires an approval workflow and a checkpoint store")
	}
	audit := cfg.Audit
	if audit == nil {
		audit = approval.NopAuditSink{}
	}
	threshold := cfg.ApprovalThreshold
	if threshold.Severity() < 0 || threshold == "" {
		threshold = policy.RiskHigh
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		tools:             cfg.Tools,
		bounds:            cfg.Bounds,
		risk:              cfg.Risk,
		approvals:         cfg.Approvals,
		checkpoints:       cfg.Checkpoints,
		audit:             audit,
		approvalThreshold: threshold,
		log:               log,
	}, nil
}

// Evaluate gates one proposed action. When the verdict is require_approval
// the run state has already been checkpointed and a pending approval
// opened; the caller must stop and wait for Resume.
func (g *Gate) Evaluate(ctx context.Context, a Action, meta Meta) (Result, error) {
	if meta.Time.IsZero() {
		meta.Time = time.Now().UTC()
	}

	if !g.tools.IsAllowed(meta.AgentRole, a.ToolName) {
		g.emitAudit(ctx, a, meta, approval.AuditToolDenied, policy.RiskLow, []string{
			fmt.Sprintf("tool %q not in allow-list for role %q", a.ToolName, meta.AgentRole),
		})
		return Result{
			Decision: DecisionDeny,
			Reasons:  []string{accessDeniedReason},
		}, nil
	}

	if violations := g.bounds.Validate(a.ToolName, a.Params); len(violations) > 0 {
		reasons := make([]string, 0, len(violations))
		for _, v := range violations {
			reasons = append(reasons, v.Message)
		}
		g.emitAudit(ctx, a, meta, approval.AuditBoundsViolation, policy.RiskLow, reasons)
		return Result{
			Decision: DecisionDeny,
			Reasons:  reasons,
		}, nil
	}

	risk := g.risk.Classify(a.Operation, a.Amount)
	if !risk.AtLeast(g.approvalThreshold) {
		return Result{Decision: DecisionAllow, RiskLevel: risk}, nil
	}

	return g.suspend(ctx, a, meta, risk)
}

// suspend checkpoints the execution and opens a pending approval bound to
// the exact action that triggered it.
func (g *Gate) suspend(ctx context.Context, a Action, meta Meta, risk policy.RiskLevel) (Result, error) {
	hash, err := ActionHash(a)
	if err != nil {
		return Result{}, fmt.Errorf("hash action: %w", err)
	}

	state, err := marshalRunState(runStateV1{
		ExecutionID:   meta.ExecutionID,
		ThreadID:      meta.ThreadID,
		Step:          meta.Step,
		PendingAction: a,
		Vars:          meta.Vars,
	})
	if err != nil {
		return Result{}, fmt.Errorf("snapshot run state: %w", err)
	}
	cp, err := g.checkpoints.Save(ctx, meta.ThreadID, state, "")
	if err != nil {
		return Result{}, fmt.Errorf("save checkpoint: %w", err)
	}

	rec, err := g.approvals.Request(ctx, approval.Approval{
		ExecutionID: meta.ExecutionID,
		ThreadID:    meta.ThreadID,
		Type:        approvalType(a),
		RiskLevel:   risk,
		Payload: map[string]any{
			"tool":      a.ToolName,
			"operation": a.Operation,
			"amount":    a.Amount,
			"params":    a.Params,
		},
		RequestedBy: meta.RequestedBy,
		ActionHash:  hash,
	})
	if err != nil {
		return Result{}, fmt.Errorf("request approval: %w", err)
	}

	reason := fmt.Sprintf("%s risk requires human approval", risk)
	g.log.Info("execution_suspended",
		"execution_id", meta.ExecutionID,
		"thread_id", meta.ThreadID,
		"tool", a.ToolName,
		"risk_level", string(risk),
		"approval_id", rec.ID,
		"checkpoint_id", cp.ID,
	)
	return Result{
		Decision:     DecisionRequireApproval,
		RiskLevel:    risk,
		Reasons:      []string{reason},
		ApprovalID:   rec.ID,
		CheckpointID: cp.ID,
	}, nil
}

func (g *Gate) emitAudit(ctx context.Context, a Action, meta Meta, kind string, risk policy.RiskLevel, reasons []string) {
	ev := approval.NewAuditEvent(kind)
	ev.ExecutionID = meta.ExecutionID
	ev.ToolName = a.ToolName
	ev.RiskLevel = risk
	ev.Actor = meta.RequestedBy
	ev.Reasons = reasons
	ev.Summary = guardrail.Redact(summarizeAction(a))
	if err := g.audit.Emit(ctx, ev); err != nil {
		g.log.Warn("audit_emit_failed", "error", err)
	}
}

// approvalType buckets an action for the approvals surface. Anything with a
// dollar amount is financial; the rest is a data change.
func approvalType(a Action) string {
	if a.Amount != 0 {
		return approval.TypeFinancial
	}
	return approval.TypeDataChange
}
