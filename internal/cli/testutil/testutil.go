// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SetupTestProject creates a temporary project: a SQLite database with a
// customers table, a leapedit.yaml pointing at it, and a journal path.
// It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "app.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() { _ = db.Close() }()

	seed := []string{
		`CREATE TABLE customers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE,
			score INTEGER DEFAULT 0
		)`,
		`CREATE INDEX customers_score_idx ON customers (score)`,
		`INSERT INTO customers (id, name, email, score) VALUES
			(1, 'Alice', 'alice@example.com', 10),
			(2, 'Bob', 'bob@example.com', 20)`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}

	cfg := `target:
  type: sqlite
  database: app.db
journal: .leapedit/journal.db
editor:
  commit: auto
`
	WriteFile(t, tmpDir, "leapedit.yaml", cfg)
	return tmpDir
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// QueryStrings runs a single-column query against a SQLite file and
// returns the values as strings.
func QueryStrings(t *testing.T, dbPath, query string) []string {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open %s: %v", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(query)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		out = append(out, v.String)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	return out
}

// ExecSQL runs statements against a SQLite file.
func ExecSQL(t *testing.T, dbPath, statements string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open %s: %v", dbPath, err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(statements); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

// CommandResult captures the output of an executed command.
type CommandResult struct {
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
	Err    error
}

// Output returns the stdout output as a string.
func (r CommandResult) Output() string {
	return r.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (r CommandResult) ErrorOutput() string {
	return r.ErrOut.String()
}

// ExecuteCommand runs cmd with args, capturing stdout and stderr.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, args ...string) CommandResult {
	t.Helper()
	res := CommandResult{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}
	cmd.SetOut(res.Out)
	cmd.SetErr(res.ErrOut)
	cmd.SetArgs(args)
	res.Err = cmd.ExecuteContext(context.Background())
	return res
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}
