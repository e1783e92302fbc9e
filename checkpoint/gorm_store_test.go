package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/finchly/payguard/db"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	cfg := db.DefaultConfig()
	cfg.DSN = filepath.Join(t.TempDir(), "payguard.db")
	gdb, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := NewGormStore(gdb)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestGormStoreSaveAssignsSequence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Save(ctx, "thread-1", []byte(`{"step":1}`), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("first seq = %d, want 1", first.Seq)
	}
	if !strings.HasPrefix(first.ID, "ckp_") {
		t.Fatalf("unexpected id format: %q", first.ID)
	}

	second, err := s.Save(ctx, "thread-1", []byte(`{"step":2}`), first.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if second.Seq != 2 || second.ParentID != first.ID {
		t.Fatalf("second = %+v", second)
	}

	// A different thread starts its own sequence.
	other, err := s.Save(ctx, "thread-2", []byte(`{}`), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if other.Seq != 1 {
		t.Fatalf("other thread seq = %d, want 1", other.Seq)
	}
}

func TestGormStoreLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.LoadLatest(ctx, "thread-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := s.Save(ctx, "thread-1", []byte(fmt.Sprintf(`{"step":%d}`, i)), ""); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	got, err := s.LoadLatest(ctx, "thread-1")
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if got.Seq != 3 || string(got.State) != `{"step":3}` {
		t.Fatalf("latest = %+v", got)
	}
}

func TestGormStoreLoadByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.Save(ctx, "thread-1", []byte(`{"step":1}`), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, saved.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != saved.ID || got.ThreadID != "thread-1" {
		t.Fatalf("got = %+v", got)
	}
	if _, err := s.Load(ctx, "ckp_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGormStoreHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []string
	for i := 1; i <= 3; i++ {
		cp, err := s.Save(ctx, "thread-1", []byte(fmt.Sprintf(`{"step":%d}`, i)), "")
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, cp.ID)
	}

	history, err := s.History(ctx, "thread-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	for i, cp := range history {
		if cp.Seq != int64(i+1) || cp.ID != ids[i] {
			t.Fatalf("history[%d] = %+v", i, cp)
		}
	}
}

func TestGormStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Save(ctx, "thread-1", []byte(fmt.Sprintf(`{"writer":%d}`, i)), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}

	history, err := s.History(ctx, "thread-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != writers {
		t.Fatalf("history length = %d, want %d", len(history), writers)
	}
	for i, cp := range history {
		if cp.Seq != int64(i+1) {
			t.Fatalf("sequence has gaps: history[%d].Seq = %d", i, cp.Seq)
		}
	}
}
