// Package journal keeps a local history of every script the gate executed,
// successful or not, so a failed or cancelled change can be inspected and
// replayed later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/gate"
)

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("journal not opened")

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("journal entry not found")

// Entry statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry is one recorded execution.
type Entry struct {
	ID       string        `json:"id"`
	Target   string        `json:"target"`
	Kind     string        `json:"kind"`
	Script   string        `json:"script"`
	Tip      string        `json:"tip,omitempty"`
	Attempt  int           `json:"attempt"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	FailedAt int           `json:"failed_at,omitempty"` // 1-based statement number, 0 when unknown or succeeded
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a journal store. Call Open before use.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Open opens (creating if needed) the journal at path and migrates it.
// Use ":memory:" for an in-memory journal.
func (s *Store) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection keeps an in-memory journal alive across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// Close closes the journal.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the path the journal was opened at.
func (s *Store) Path() string {
	return s.path
}

// Recorder returns a gate.Recorder that files executions under target and kind.
func (s *Store) Recorder(target, kind string) gate.Recorder {
	return &recorder{store: s, target: target, kind: kind}
}

type recorder struct {
	store  *Store
	target string
	kind   string
}

func (r *recorder) Record(ctx context.Context, e gate.Execution) error {
	_, err := r.store.Add(ctx, r.target, r.kind, e)
	return err
}

// Add records one execution and returns its entry id.
func (s *Store) Add(ctx context.Context, target, kind string, e gate.Execution) (string, error) {
	if s.db == nil {
		return "", ErrNotOpen
	}

	entry := Entry{
		ID:       uuid.NewString(),
		Target:   target,
		Kind:     kind,
		Script:   e.Script,
		Tip:      e.Tip,
		Attempt:  e.Attempt,
		Status:   StatusSucceeded,
		Started:  e.Started,
		Duration: e.Duration,
	}
	if entry.Started.IsZero() {
		entry.Started = s.now()
	}
	if e.Err != nil {
		entry.Status = StatusFailed
		entry.Error = e.Err.Error()
		var execErr *core.ExecError
		if errors.As(e.Err, &execErr) {
			entry.FailedAt = execErr.Index + 1
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, target, kind, script, tip, attempt, status, error, failed_at, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Target, entry.Kind, entry.Script, entry.Tip, entry.Attempt, entry.Status,
		nullString(entry.Error), nullInt(entry.FailedAt), entry.Started.UTC(), entry.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record execution: %w", err)
	}
	return entry.ID, nil
}

const selectEntry = `
	SELECT id, target, kind, script, tip, attempt, status, error, failed_at, started_at, duration_ms
	FROM executions`

// List returns the most recent entries, newest first. limit <= 0 returns all.
// A non-empty target filters by target.
func (s *Store) List(ctx context.Context, target string, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	query := selectEntry
	var args []any
	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, selectEntry+" WHERE id LIKE ? || '%' LIMIT 2", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("ambiguous journal id prefix %q", id)
	}
}

// Prune deletes entries started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM executions WHERE started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e        Entry
		errText  sql.NullString
		failedAt sql.NullInt64
		millis   int64
	)
	if err := rows.Scan(&e.ID, &e.Target, &e.Kind, &e.Script, &e.Tip, &e.Attempt, &e.Status,
		&errText, &failedAt, &e.Started, &millis); err != nil {
		return Entry{}, fmt.Errorf("failed to scan execution: %w", err)
	}
	e.Error = errText.String
	e.FailedAt = int(failedAt.Int64)
	e.Duration = time.Duration(millis) * time.Millisecond
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
