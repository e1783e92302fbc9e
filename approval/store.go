package approval

import (
	"context"
	"time"
)

// Store is the durable ledger. Implementations must make Decide a single
// atomic compare-and-set on status so two racing decisions produce exactly
// one winner.
type Store interface {
	Create(ctx context.Context, rec Approval) (string, error)
	Get(ctx context.Context, id string) (Approval, bool, error)
	// ListPending returns all pending approvals, newest first.
	ListPending(ctx context.Context) ([]Approval, error)
	// Decide transitions pending -> status exactly once. Returns
	// ErrNotFound for unknown ids and ErrInvalidState when the record is
	// already decided.
	Decide(ctx context.Context, id string, status Status, decidedBy, reason string, decidedAt time.Time) error
}
