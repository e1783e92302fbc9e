package checkpoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/finchly/payguard/db/models"
)

// GormStore keeps the checkpoint log in the shared gorm database. Saves on
// the same thread are serialized by a per-thread mutex so sequence numbers
// are assigned without gaps even under concurrent writers.
type GormStore struct {
	gdb *gorm.DB

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

func NewGormStore(gdb *gorm.DB) (*GormStore, error) {
	if gdb == nil {
		return nil, fmt.Errorf("nil gorm db")
	}
	return &GormStore{
		gdb:     gdb,
		threads: make(map[string]*sync.Mutex),
	}, nil
}

func (s *GormStore) Save(ctx context.Context, threadID string, state []byte, parentID string) (Checkpoint, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return Checkpoint{}, fmt.Errorf("missing thread id")
	}

	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	var seq int64 = 1
	var head models.Checkpoint
	err := s.gdb.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		First(&head).Error
	switch {
	case err == nil:
		seq = head.Seq + 1
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Checkpoint{}, err
	}

	row := models.Checkpoint{
		ID:        "ckp_" + randHex(12),
		ThreadID:  threadID,
		Seq:       seq,
		ParentID:  strings.TrimSpace(parentID),
		State:     append([]byte(nil), state...),
		CreatedAt: time.Now().UTC().Unix(),
	}
	if err := s.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return Checkpoint{}, err
	}
	return fromModel(row), nil
}

func (s *GormStore) LoadLatest(ctx context.Context, threadID string) (Checkpoint, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return Checkpoint{}, ErrNotFound
	}

	var row models.Checkpoint
	err := s.gdb.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	return fromModel(row), nil
}

func (s *GormStore) Load(ctx context.Context, id string) (Checkpoint, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Checkpoint{}, ErrNotFound
	}

	var row models.Checkpoint
	err := s.gdb.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	return fromModel(row), nil
}

func (s *GormStore) History(ctx context.Context, threadID string) ([]Checkpoint, error) {
	var rows []models.Checkpoint
	err := s.gdb.WithContext(ctx).
		Where("thread_id = ?", strings.TrimSpace(threadID)).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Checkpoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *GormStore) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.threads[threadID] = lock
	}
	return lock
}

func fromModel(row models.Checkpoint) Checkpoint {
	return Checkpoint{
		ID:        row.ID,
		ThreadID:  row.ThreadID,
		Seq:       row.Seq,
		ParentID:  row.ParentID,
		State:     row.State,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
}

func randHex(nbytes int) string {
	if nbytes <= 0 {
		nbytes = 12
	}
	b := make([]byte, nbytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
