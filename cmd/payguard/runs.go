package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultFinishedTTL = 30 * time.Minute

type RunStatus string

const (
	RunSuspended RunStatus = "suspended"
	RunQueued    RunStatus = "queued"
	RunResumed   RunStatus = "resumed"
	RunFailed    RunStatus = "failed"
)

// RunInfo tracks one execution that suspended for approval and is waiting
// to be woken by a decision.
type RunInfo struct {
	ID          string     `json:"id"`
	ExecutionID string     `json:"execution_id"`
	ThreadID    string     `json:"thread_id"`
	ApprovalID  string     `json:"approval_id"`
	Status      RunStatus  `json:"status"`
	SuspendedAt time.Time  `json:"suspended_at"`
	ResumedAt   *time.Time `json:"resumed_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type suspendedRun struct {
	info *RunInfo
}

// RunRegistry is the serve daemon's in-memory index of suspended runs.
// Decisions arriving from the approvals surface are matched to runs by
// approval id; approved runs go onto the resume queue for the worker.
// The durable state lives in the checkpoint and approval stores; losing
// this registry only delays resumption until the next decision event.
type RunRegistry struct {
	mu          sync.RWMutex
	runs        map[string]*suspendedRun
	queue       chan *suspendedRun
	done        chan struct{}
	closeOnce   sync.Once
	finishedTTL time.Duration
}

func NewRunRegistry(maxQueue int) *RunRegistry {
	if maxQueue <= 0 {
		maxQueue = 100
	}
	r := &RunRegistry{
		runs:        make(map[string]*suspendedRun),
		queue:       make(chan *suspendedRun, maxQueue),
		done:        make(chan struct{}),
		finishedTTL: defaultFinishedTTL,
	}
	go r.evictLoop()
	return r
}

// Register records a freshly suspended execution.
func (r *RunRegistry) Register(executionID, threadID, approvalID string) (*RunInfo, error) {
	approvalID = strings.TrimSpace(approvalID)
	if approvalID == "" {
		return nil, fmt.Errorf("missing approval id")
	}
	select {
	case <-r.done:
		return nil, fmt.Errorf("registry is closed")
	default:
	}

	info := &RunInfo{
		ID:          uuid.NewString(),
		ExecutionID: strings.TrimSpace(executionID),
		ThreadID:    strings.TrimSpace(threadID),
		ApprovalID:  approvalID,
		Status:      RunSuspended,
		SuspendedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.runs[info.ID] = &suspendedRun{info: info}
	r.mu.Unlock()

	cp := *info
	return &cp, nil
}

func (r *RunRegistry) Get(id string) (*RunInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sr, ok := r.runs[id]
	if !ok || sr == nil || sr.info == nil {
		return nil, false
	}
	// Return a shallow copy for safe reads.
	cp := *sr.info
	return &cp, true
}

func (r *RunRegistry) Update(id string, fn func(info *RunInfo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sr := r.runs[id]
	if sr == nil || sr.info == nil {
		return
	}
	fn(sr.info)
}

// EnqueueResumeByApprovalID moves the suspended run waiting on the approval
// onto the resume queue. Idempotent against double delivery: a run already
// queued or finished is not queued again.
func (r *RunRegistry) EnqueueResumeByApprovalID(approvalID string) (string, error) {
	approvalID = strings.TrimSpace(approvalID)
	if approvalID == "" {
		return "", fmt.Errorf("missing approval id")
	}

	r.mu.Lock()
	var sr *suspendedRun
	for _, candidate := range r.runs {
		if candidate == nil || candidate.info == nil {
			continue
		}
		if candidate.info.ApprovalID != approvalID {
			continue
		}
		if candidate.info.Status != RunSuspended {
			continue
		}
		sr = candidate
		break
	}
	if sr == nil {
		r.mu.Unlock()
		return "", fmt.Errorf("no suspended run found for approval %q", approvalID)
	}

	sr.info.Status = RunQueued
	select {
	case r.queue <- sr:
		r.mu.Unlock()
		return sr.info.ID, nil
	default:
		sr.info.Status = RunSuspended
		r.mu.Unlock()
		return "", fmt.Errorf("resume queue is full")
	}
}

// FailPendingByApprovalID marks the suspended run as failed, typically on a
// rejection. Returns the run id and whether a run was found.
func (r *RunRegistry) FailPendingByApprovalID(approvalID string, errMsg string) (string, bool) {
	approvalID = strings.TrimSpace(approvalID)
	if approvalID == "" {
		return "", false
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sr := range r.runs {
		if sr == nil || sr.info == nil {
			continue
		}
		if sr.info.ApprovalID != approvalID {
			continue
		}
		if sr.info.Status != RunSuspended {
			continue
		}
		sr.info.Status = RunFailed
		sr.info.Error = strings.TrimSpace(errMsg)
		sr.info.FinishedAt = &now
		return sr.info.ID, true
	}
	return "", false
}

// Next blocks until a run is queued for resume or the registry is closed.
func (r *RunRegistry) Next() (*RunInfo, bool) {
	select {
	case sr, ok := <-r.queue:
		if !ok || sr == nil || sr.info == nil {
			return nil, false
		}
		r.mu.RLock()
		cp := *sr.info
		r.mu.RUnlock()
		return &cp, true
	case <-r.done:
		return nil, false
	}
}

func (r *RunRegistry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func isTerminal(st RunStatus) bool {
	return st == RunResumed || st == RunFailed
}

// evictLoop removes finished runs after a TTL so the map does not grow
// unbounded in a long-running daemon.
func (r *RunRegistry) evictLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictExpired()
		}
	}
}

func (r *RunRegistry) evictExpired() {
	now := time.Now().UTC()
	ttl := r.finishedTTL
	if ttl <= 0 {
		ttl = defaultFinishedTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sr := range r.runs {
		if sr == nil || sr.info == nil {
			delete(r.runs, id)
			continue
		}
		if !isTerminal(sr.info.Status) {
			continue
		}
		if sr.info.FinishedAt != nil && now.Sub(*sr.info.FinishedAt) > ttl {
			delete(r.runs, id)
		}
	}
}
