package approval

import (
	"context"
	"log/slog"
)

// Notifier receives decision outcomes so suspended executions can be woken
// without polling the ledger.
type Notifier interface {
	DecisionMade(ctx context.Context, sum DecisionSummary)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, sum DecisionSummary)

func (f NotifierFunc) DecisionMade(ctx context.Context, sum DecisionSummary) { f(ctx, sum) }

// ChanNotifier fans decisions into a buffered channel. Delivery is best
// effort: if no consumer keeps up the event is dropped and logged, the
// decision itself is already durable in the ledger.
type ChanNotifier struct {
	ch  chan DecisionSummary
	log *slog.Logger
}

func NewChanNotifier(buffer int, log *slog.Logger) *ChanNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChanNotifier{ch: make(chan DecisionSummary, buffer), log: log}
}

func (n *ChanNotifier) DecisionMade(ctx context.Context, sum DecisionSummary) {
	select {
	case n.ch <- sum:
	default:
		n.log.Warn("decision_event_dropped", "approval_id", sum.ApprovalID, "status", string(sum.Status))
	}
}

func (n *ChanNotifier) Events() <-chan DecisionSummary { return n.ch }
