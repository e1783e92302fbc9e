package checkpoint

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound: no checkpoint exists for the thread or id.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is one saved execution state. The log is append-only: a save
// never rewrites history, it adds a new head.
type Checkpoint struct {
	ID       string
	ThreadID string
	// Seq orders checkpoints within a thread, starting at 1.
	Seq      int64
	ParentID string
	// State is an opaque snapshot owned by the caller, typically JSON.
	State     []byte
	CreatedAt time.Time
}

// Store persists execution state so a suspended run can be resumed after a
// crash or an approval decision made days later.
type Store interface {
	// Save appends a new checkpoint to the thread and returns it with its
	// assigned id and sequence number.
	Save(ctx context.Context, threadID string, state []byte, parentID string) (Checkpoint, error)
	// LoadLatest returns the newest checkpoint of the thread.
	LoadLatest(ctx context.Context, threadID string) (Checkpoint, error)
	// Load returns a checkpoint by id.
	Load(ctx context.Context, id string) (Checkpoint, error)
	// History returns the thread's checkpoints in ascending sequence order.
	History(ctx context.Context, threadID string) ([]Checkpoint, error)
}
