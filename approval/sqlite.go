package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/finchly/payguard/policy"
)

// SQLiteStore persists approvals in a local SQLite file. Records are only
// ever inserted and decided, never deleted.
type SQLiteStore struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing sqlite dsn")
	}
	s := &SQLiteStore{dsn: dsn}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec Approval) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return "", err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Status = StatusPending

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = newApprovalID()
	}

	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO approvals (
  id, execution_id, thread_id, approval_type,
  risk_level, payload_json, status,
  requested_by, decided_by, decision_reason,
  created_at_unix, decided_at_unix, action_hash
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, strings.TrimSpace(rec.ExecutionID), strings.TrimSpace(rec.ThreadID), strings.TrimSpace(rec.Type),
		string(rec.RiskLevel), string(payloadJSON), string(rec.Status),
		strings.TrimSpace(rec.RequestedBy), "", "",
		rec.CreatedAt.Unix(), nil, strings.TrimSpace(rec.ActionHash),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Approval, bool, error) {
	if s == nil {
		return Approval{}, false, fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return Approval{}, false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Approval{}, false, nil
	}

	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return Approval{}, false, nil
	}
	if err != nil {
		return Approval{}, false, err
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListPending(ctx context.Context) ([]Approval, error) {
	if s == nil {
		return nil, fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE status = ? ORDER BY created_at_unix DESC, id DESC`,
		string(StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		rec, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Decide is a compare-and-set on status. Of two racing decisions exactly
// one updates the row; the loser is told why it lost.
func (s *SQLiteStore) Decide(ctx context.Context, id string, status Status, decidedBy, reason string, decidedAt time.Time) error {
	if s == nil {
		return fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}

	switch status {
	case StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidArgument, status)
	}
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE approvals
SET status = ?, decided_by = ?, decision_reason = ?, decided_at_unix = ?
WHERE id = ? AND status = ?
`, string(status), strings.TrimSpace(decidedBy), strings.TrimSpace(reason), decidedAt.UTC().Unix(),
		id, string(StatusPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the id is unknown or the record was already
	// decided. Re-read to tell the caller which.
	var got string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM approvals WHERE id = ?`, id).Scan(&got)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: current status %q", ErrInvalidState, got)
}

func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

const selectColumns = `
SELECT
  id, execution_id, thread_id, approval_type,
  risk_level, payload_json, status,
  requested_by, decided_by, decision_reason,
  created_at_unix, decided_at_unix, action_hash
FROM approvals`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (Approval, error) {
	var (
		rec           Approval
		riskLevel     string
		payloadJSON   string
		status        string
		createdAtUnix int64
		decidedAtUnix sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &rec.ExecutionID, &rec.ThreadID, &rec.Type,
		&riskLevel, &payloadJSON, &status,
		&rec.RequestedBy, &rec.DecidedBy, &rec.DecisionReason,
		&createdAtUnix, &decidedAtUnix, &rec.ActionHash,
	)
	if err != nil {
		return Approval{}, err
	}
	rec.RiskLevel = policy.RiskLevel(riskLevel)
	rec.Status = Status(status)
	rec.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	if decidedAtUnix.Valid {
		t := time.Unix(decidedAtUnix.Int64, 0).UTC()
		rec.DecidedAt = &t
	}
	_ = json.Unmarshal([]byte(payloadJSON), &rec.Payload)
	return rec, nil
}

func (s *SQLiteStore) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return err
	}
	s.db = db
	return s.migrate()
}

func (s *SQLiteStore) ensureOpen() error {
	if s.db != nil {
		return nil
	}
	return s.open()
}

func (s *SQLiteStore) migrate() error {
	if s.db == nil {
		return fmt.Errorf("sqlite db is not open")
	}
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS approvals (
  id TEXT PRIMARY KEY,
  execution_id TEXT,
  thread_id TEXT,
  approval_type TEXT,
  risk_level TEXT,
  payload_json TEXT,
  status TEXT NOT NULL,
  requested_by TEXT,
  decided_by TEXT,
  decision_reason TEXT,
  created_at_unix INTEGER NOT NULL,
  decided_at_unix INTEGER,
  action_hash TEXT
);
CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);
CREATE INDEX IF NOT EXISTS idx_approvals_execution ON approvals(execution_id);
`)
	return err
}
