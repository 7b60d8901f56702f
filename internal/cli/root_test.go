package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapedit/internal/cli/commands"
	"github.com/leapstack-labs/leapedit/internal/cli/testutil"
	"github.com/leapstack-labs/leapedit/internal/journal"
)

func run(t *testing.T, dir string, args ...string) testutil.CommandResult {
	t.Helper()
	args = append(args, "--config", filepath.Join(dir, "leapedit.yaml"))
	return testutil.ExecuteCommand(t, NewRootCmd(), args...)
}

func openJournal(t *testing.T, dir string) *journal.Store {
	t.Helper()
	store := journal.NewStore()
	require.NoError(t, store.Open(filepath.Join(dir, ".leapedit", "journal.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRoot_Version(t *testing.T) {
	res := testutil.ExecuteCommand(t, NewRootCmd(), "version")
	require.NoError(t, res.Err)
	testutil.AssertContains(t, res.Output(), "LeapEdit v"+Version)
	testutil.AssertContains(t, res.Output(), "Dialects: duckdb, postgres, sqlite")
}

func TestRoot_Show(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	tests := []struct {
		name    string
		args    []string
		wantOut []string
	}{
		{"columns", []string{"show", "columns", "customers"}, []string{"Primary Key", "email", "(4 columns)"}},
		{"indexes", []string{"show", "indexes", "customers"}, []string{"customers_score_idx", "(1 index)"}},
		{"constraints", []string{"show", "constraints", "main.customers"}, []string{"UNIQUE", "PRIMARY KEY"}},
		{"rows", []string{"show", "rows", "customers"}, []string{"alice@example.com", "Bob", "(2 rows)"}},
		{"objects", []string{"show", "objects"}, []string{"customers", "TABLE"}},
		{"variables", []string{"show", "variables"}, []string{"foreign_keys"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, dir, tt.args...)
			require.NoError(t, res.Err, res.ErrorOutput())
			for _, want := range tt.wantOut {
				testutil.AssertContains(t, res.Output(), want)
			}
			testutil.AssertNoANSI(t, res.Output())
		})
	}
}

func TestRoot_ShowErrors(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := run(t, dir, "show", "triggers", "customers")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unknown kind")

	res = run(t, dir, "show", "rows")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "requires a table")

	res = run(t, dir, "show", "rows", "missing_table")
	require.Error(t, res.Err)
}

const renamePlan = `kind: row
table: customers
changes:
  - op: edit
    match: {id: 1}
    set: {name: Alicia}
  - op: add
    set: {id: 3, name: Carol, email: $null}
    paste: {score: "0030"}
`

func TestRoot_ApplyDryRun(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	planPath := testutil.WriteFile(t, dir, "plan.yaml", renamePlan)

	res := run(t, dir, "apply", planPath, "--dry-run")
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "UPDATE customers SET name = 'Alicia'")
	testutil.AssertContains(t, res.Output(), "INSERT INTO customers")

	names := testutil.QueryStrings(t, filepath.Join(dir, "app.db"), "SELECT name FROM customers ORDER BY id")
	assert.Equal(t, []string{"Alice", "Bob"}, names)

	entries, err := openJournal(t, dir).List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry runs are not journaled")
}

func TestRoot_ApplyAndHistory(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	planPath := testutil.WriteFile(t, dir, "plan.yaml", renamePlan)
	dbPath := filepath.Join(dir, "app.db")

	res := run(t, dir, "apply", planPath, "--yes")
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "applied")

	assert.Equal(t, []string{"Alicia", "Bob", "Carol"}, testutil.QueryStrings(t, dbPath, "SELECT name FROM customers ORDER BY id"))
	assert.Equal(t, []string{"30"}, testutil.QueryStrings(t, dbPath, "SELECT score FROM customers WHERE id = 3"))

	// The edit is now a no-op and the add collides with the row it inserted.
	res = run(t, dir, "apply", planPath, "--yes")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, commands.ErrApplyFailed)

	res = run(t, dir, "history")
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "succeeded")
	testutil.AssertContains(t, res.Output(), "failed")
	testutil.AssertContains(t, res.Output(), "(2 executions)")
	testutil.AssertNoANSI(t, res.Output())

	res = run(t, dir, "history", "--format", "json")
	require.NoError(t, res.Err, res.ErrorOutput())
	var listed []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(res.Output()), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, journal.StatusFailed, listed[0].Status)
	assert.Positive(t, listed[0].FailedAt)

	res = run(t, dir, "history", "--format", "yaml")
	require.Error(t, res.Err)

	entries, err := openJournal(t, dir).List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	failed, succeeded := entries[0], entries[1]
	assert.Equal(t, journal.StatusFailed, failed.Status)
	assert.Equal(t, "row", succeeded.Kind)
	assert.Equal(t, "dev:sqlite", succeeded.Target)

	res = run(t, dir, "history", "show", failed.ID[:8])
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "Status:   failed")
	testutil.AssertContains(t, res.Output(), "UNIQUE")

	testutil.ExecSQL(t, dbPath, "DELETE FROM customers WHERE id = 3")
	res = run(t, dir, "history", "replay", succeeded.ID, "--yes")
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "replayed")
	assert.Equal(t, []string{"Alicia", "Bob", "Carol"}, testutil.QueryStrings(t, dbPath, "SELECT name FROM customers ORDER BY id"))

	entries, err = openJournal(t, dir).List(context.Background(), "dev:sqlite", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRoot_ApplyManualCommitRollsBack(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	planPath := testutil.WriteFile(t, dir, "plan.yaml", `kind: row
table: customers
changes:
  - op: delete
    match: {id: 2}
  - op: add
    set: {id: 1, name: Duplicate}
`)

	res := run(t, dir, "apply", planPath, "--yes", "--commit", "manual")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, commands.ErrApplyFailed)

	names := testutil.QueryStrings(t, filepath.Join(dir, "app.db"), "SELECT name FROM customers ORDER BY id")
	assert.Equal(t, []string{"Alice", "Bob"}, names, "the delete is rolled back with the failed insert")
}

func TestRoot_ApplySchemaPlan(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	planPath := testutil.WriteFile(t, dir, "plan.yaml", `kind: column
table: customers
changes:
  - op: add
    set: {name: note, type: TEXT, nullable: true}
---
kind: index
table: customers
changes:
  - op: delete
    name: customers_score_idx
`)

	res := run(t, dir, "apply", planPath, "--yes")
	require.NoError(t, res.Err, res.ErrorOutput())
	testutil.AssertContains(t, res.Output(), "plan 2/2: index customers")

	cols := testutil.QueryStrings(t, filepath.Join(dir, "app.db"), "SELECT name FROM pragma_table_info('customers') ORDER BY cid")
	assert.Equal(t, []string{"id", "name", "email", "score", "note"}, cols)
	idx := testutil.QueryStrings(t, filepath.Join(dir, "app.db"), "SELECT name FROM pragma_index_list('customers') WHERE origin = 'c'")
	assert.Empty(t, idx)
}

func TestRoot_ApplyRequiresConfirmation(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("running in a terminal")
	}
	dir := testutil.SetupTestProject(t)
	planPath := testutil.WriteFile(t, dir, "plan.yaml", renamePlan)

	res := run(t, dir, "apply", planPath)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "pass --yes")
}

func TestRoot_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "leapedit.yaml", "target:\n  type: oracle\n")

	res := run(t, dir, "show", "objects")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unknown adapter type")
}
