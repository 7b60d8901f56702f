// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for statement synthesis without a live connection.
package dialect

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// postgresReservedWords contains common PostgreSQL reserved words.
// This is a manually maintained list of frequently problematic identifiers.
// For a complete list, use pg_get_keywords() at runtime.
var postgresReservedWords = []string{
	"user", "order", "group", "table", "select", "from", "where", "index",
	"all", "and", "any", "array", "as", "asc", "asymmetric", "authorization",
	"between", "binary", "both", "case", "cast", "check", "collate", "column",
	"constraint", "create", "cross", "current_catalog", "current_date",
	"current_role", "current_schema", "current_time", "current_timestamp",
	"current_user", "default", "deferrable", "desc", "distinct", "do", "else",
	"end", "except", "false", "fetch", "for", "foreign", "freeze", "full",
	"grant", "having", "ilike", "in", "initially", "inner", "intersect",
	"into", "is", "isnull", "join", "lateral", "leading", "left", "like",
	"limit", "localtime", "localtimestamp", "natural", "not", "notnull",
	"null", "offset", "on", "only", "or", "outer", "overlaps", "placing",
	"primary", "references", "returning", "right", "session_user", "similar",
	"some", "symmetric", "then", "to", "trailing", "true", "union", "unique",
	"using", "variadic", "verbose", "when", "window", "with",
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`, dialect.NormLowercase). // Postgres normalizes unquoted identifiers to lowercase
	DefaultSchema("public").
	PlaceholderStyle(dialect.PlaceholderDollar).
	Transactions("BEGIN", "COMMIT", "ROLLBACK").
	RowLocator("ctid").
	Bytes(dialect.BytesByteaHex).
	StagedReader("pg_read_binary_file(%s)").
	Variables(dialect.VariablesSet).
	WithFeatures(core.Features{
		AlterColumnType:     true,
		AlterColumnNull:     true,
		AlterColumnDefault:  true,
		RenameColumn:        true,
		DropColumn:          true,
		ColumnComments:      true,
		AddConstraint:       true,
		DropConstraint:      true,
		DeferrableCheck:     true,
		IndexMethods:        true,
		SchemaQualifiedDrop: true,
		RenameView:          true,
		UpdateDefault:       true,
	}).
	NumericTypes(
		"smallint", "integer", "int", "int2", "int4", "int8", "bigint",
		"numeric", "decimal", "real", "float4", "float8", "double",
		"smallserial", "serial", "bigserial", "money",
	).
	WithReservedWords(postgresReservedWords...).
	Build()
