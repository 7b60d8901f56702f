package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/gate"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating twice is a no-op.
	require.NoError(t, store.Migrate())
}

func TestStore_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")

	store := NewStore()
	require.NoError(t, store.Open(path))
	_, err := store.Add(context.Background(), "dev", "row", gate.Execution{Script: "DELETE FROM t;", Attempt: 1})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewStore()
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()
	entries, err := reopened.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, path, reopened.Path())
}

func TestStore_NotOpen(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, err := store.Add(ctx, "dev", "row", gate.Execution{})
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.List(ctx, "", 0)
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.Migrate(), ErrNotOpen)
	assert.NoError(t, store.Close())
}

func TestStore_AddAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		exec         gate.Execution
		wantStatus   string
		wantError    string
		wantFailedAt int
	}{
		{
			name:       "success",
			exec:       gate.Execution{Script: "UPDATE t SET a = 1;", Tip: "tip", Attempt: 1, Started: started, Duration: 1500 * time.Millisecond},
			wantStatus: StatusSucceeded,
		},
		{
			name: "exec error",
			exec: gate.Execution{
				Script:  "UPDATE t SET a = 1;\nUPDATE t SET b = 2;",
				Attempt: 2,
				Started: started,
				Err:     &core.ExecError{Index: 1, Statement: "UPDATE t SET b = 2", Cause: errors.New("no such column: b")},
			},
			wantStatus:   StatusFailed,
			wantError:    "no such column: b",
			wantFailedAt: 2,
		},
		{
			name:       "plain error",
			exec:       gate.Execution{Script: "", Attempt: 1, Started: started, Err: gate.ErrEmptyScript},
			wantStatus: StatusFailed,
			wantError:  "script is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := store.Add(ctx, "dev", "row", tt.exec)
			require.NoError(t, err)

			entry, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, entry.ID)
			assert.Equal(t, "dev", entry.Target)
			assert.Equal(t, "row", entry.Kind)
			assert.Equal(t, tt.exec.Script, entry.Script)
			assert.Equal(t, tt.exec.Tip, entry.Tip)
			assert.Equal(t, tt.exec.Attempt, entry.Attempt)
			assert.Equal(t, tt.wantStatus, entry.Status)
			assert.Contains(t, entry.Error, tt.wantError)
			assert.Equal(t, tt.wantFailedAt, entry.FailedAt)
			assert.True(t, started.Equal(entry.Started))
			assert.Equal(t, tt.exec.Duration, entry.Duration)
		})
	}
}

func TestStore_GetPrefixAndMissing(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Add(ctx, "dev", "column", gate.Execution{Script: "ALTER TABLE t ADD COLUMN c INT;", Attempt: 1})
	require.NoError(t, err)

	entry, err := store.Get(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)

	_, err = store.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListOrderAndFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, target := range []string{"dev", "prod", "dev"} {
		_, err := store.Add(ctx, target, "row", gate.Execution{
			Script:  "SELECT 1;",
			Attempt: i + 1,
			Started: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Attempt, "newest first")
	assert.Equal(t, 1, all[2].Attempt)

	dev, err := store.List(ctx, "dev", 0)
	require.NoError(t, err)
	require.Len(t, dev, 2)
	for _, e := range dev {
		assert.Equal(t, "dev", e.Target)
	}

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 3, limited[0].Attempt)
}

func TestStore_Prune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Add(ctx, "dev", "row", gate.Execution{Script: "SELECT 1;", Attempt: 1, Started: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	removed, err := store.Prune(ctx, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

type failingExecutor struct {
	calls int
}

func (f *failingExecutor) ExecScript(_ context.Context, script string) error {
	f.calls++
	if f.calls == 1 {
		return &core.ExecError{Index: 0, Statement: script, Cause: errors.New("locked")}
	}
	return nil
}

func TestRecorder_WithGate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	confirmer := gate.ConfirmFunc(func(_ context.Context, d *gate.Draft) (gate.Decision, error) {
		if d.Attempt > 2 {
			return gate.Cancel, nil
		}
		return gate.Execute, nil
	})
	g := gate.New(&failingExecutor{}, confirmer, gate.WithRecorder(store.Recorder("dev", "row")))

	out, err := g.Run(ctx, "DELETE FROM t WHERE id = 1;", "")
	require.NoError(t, err)
	assert.Equal(t, gate.Succeeded, out.Status)

	entries, err := store.List(ctx, "dev", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	statuses := map[int]string{}
	for _, e := range entries {
		statuses[e.Attempt] = e.Status
	}
	assert.Equal(t, map[int]string{1: StatusFailed, 2: StatusSucceeded}, statuses)
}
