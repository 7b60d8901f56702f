package core

import (
	"context"
	"database/sql"
)

// Catalog is the Load collaborator: it reads the persisted state of every
// editable entity kind. Each call returns a fresh snapshot generation.
type Catalog interface {
	// Columns lists the columns of a table in ordinal order.
	Columns(ctx context.Context, table TableRef) ([]Column, error)

	// Indexes lists secondary indexes of a table (constraint-backing indexes excluded).
	Indexes(ctx context.Context, table TableRef) ([]Index, error)

	// Constraints lists table constraints.
	Constraints(ctx context.Context, table TableRef) ([]Constraint, error)

	// Rows reads up to limit rows of a table. limit <= 0 reads all rows.
	Rows(ctx context.Context, table TableRef, limit int) ([]Row, error)

	// RowIdentity reports how rows of a table can be addressed.
	RowIdentity(ctx context.Context, table TableRef) (RowIdentity, error)

	// Objects lists tables and views of a schema.
	Objects(ctx context.Context, schema string) ([]Object, error)

	// Variables lists session variables visible to the connection.
	Variables(ctx context.Context) ([]Variable, error)
}

// ScriptExecutor runs a composed script as one batch on a single session.
// It stops at the first failing statement.
type ScriptExecutor interface {
	ExecScript(ctx context.Context, script string) error
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any

	// ManualCommit wraps executed scripts in an explicit transaction that the
	// script itself must commit.
	ManualCommit bool
	// Delimiter overrides the dialect's statement delimiter when splitting scripts.
	Delimiter string
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
