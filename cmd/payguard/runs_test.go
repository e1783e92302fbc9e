package main

import (
	"sync"
	"testing"
	"time"
)

func TestRunRegistry_ResumeByApprovalID(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	info, err := reg.Register("exec-1", "thread-1", "apr_abc")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if info.Status != RunSuspended {
		t.Fatalf("status = %q, want suspended", info.Status)
	}

	runID, err := reg.EnqueueResumeByApprovalID("apr_abc")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if runID != info.ID {
		t.Fatalf("run id = %q, want %q", runID, info.ID)
	}

	got, ok := reg.Next()
	if !ok || got.ID != info.ID {
		t.Fatalf("next = %v ok=%v", got, ok)
	}
	if got.Status != RunQueued {
		t.Fatalf("status = %q, want queued", got.Status)
	}
}

func TestRunRegistry_EnqueueUnknownApproval(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	if _, err := reg.EnqueueResumeByApprovalID("apr_missing"); err == nil {
		t.Fatal("expected error for unknown approval")
	}
}

func TestRunRegistry_EnqueueIsNotDoubleDelivered(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	if _, err := reg.Register("exec-1", "thread-1", "apr_abc"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.EnqueueResumeByApprovalID("apr_abc"); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, err := reg.EnqueueResumeByApprovalID("apr_abc"); err == nil {
		t.Fatal("second enqueue must fail, the run is already queued")
	}
}

func TestRunRegistry_FailPendingByApprovalID(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	info, err := reg.Register("exec-1", "thread-1", "apr_abc")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	runID, ok := reg.FailPendingByApprovalID("apr_abc", "approval rejected: budget frozen")
	if !ok || runID != info.ID {
		t.Fatalf("fail = %q ok=%v", runID, ok)
	}

	got, ok := reg.Get(info.ID)
	if !ok {
		t.Fatal("run disappeared")
	}
	if got.Status != RunFailed || got.Error == "" || got.FinishedAt == nil {
		t.Fatalf("run = %+v", got)
	}

	// A failed run cannot be queued for resume afterwards.
	if _, err := reg.EnqueueResumeByApprovalID("apr_abc"); err == nil {
		t.Fatal("expected error enqueueing a failed run")
	}
}

func TestRunRegistry_NextReturnsOnClose(t *testing.T) {
	reg := NewRunRegistry(10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if info, ok := reg.Next(); ok {
			t.Errorf("expected ok=false after Close, got %v", info)
		}
	}()

	// Give the goroutine time to block on Next().
	time.Sleep(50 * time.Millisecond)
	reg.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after Close()")
	}
}

func TestRunRegistry_CloseIsIdempotent(t *testing.T) {
	reg := NewRunRegistry(10)
	reg.Close()
	reg.Close() // must not panic
}

func TestRunRegistry_RegisterAfterCloseReturnsError(t *testing.T) {
	reg := NewRunRegistry(10)
	reg.Close()
	if _, err := reg.Register("exec-1", "thread-1", "apr_abc"); err == nil {
		t.Fatal("expected error on Register after Close")
	}
}

func TestRunRegistry_EvictExpired(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	reg.finishedTTL = 10 * time.Millisecond

	info, err := reg.Register("exec-1", "thread-1", "apr_abc")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	finished := time.Now().Add(-1 * time.Second)
	reg.Update(info.ID, func(ri *RunInfo) {
		ri.Status = RunFailed
		ri.FinishedAt = &finished
	})

	if _, ok := reg.Get(info.ID); !ok {
		t.Fatal("expected run to still be visible before eviction")
	}
	reg.evictExpired()
	if _, ok := reg.Get(info.ID); ok {
		t.Fatal("expected run to be evicted after TTL")
	}
}

func TestRunRegistry_EvictKeepsSuspendedRuns(t *testing.T) {
	reg := NewRunRegistry(10)
	defer reg.Close()

	reg.finishedTTL = 10 * time.Millisecond

	info, err := reg.Register("exec-1", "thread-1", "apr_abc")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	reg.evictExpired()
	if _, ok := reg.Get(info.ID); !ok {
		t.Fatal("suspended run was incorrectly evicted")
	}
}
