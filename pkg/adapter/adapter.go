// Package adapter provides database adapter interfaces for LeapEdit.
//
// An adapter is the session the editors run against: it loads catalog
// snapshots (core.Catalog) and executes composed scripts as one batch.
// Concrete implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

// Type aliases for the core types adapters exchange.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	core.Catalog
	core.ScriptExecutor

	// Connect establishes a connection to the database using the provided config.
	// Adapters keep a single session so that session variables and explicit
	// transactions carry across scripts.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a single SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// Dialect returns the SQL dialect statements are synthesized for.
	Dialect() *dialect.Dialect
}
