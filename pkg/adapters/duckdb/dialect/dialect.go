// Package dialect provides the DuckDB SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for statement synthesis without a live connection.
package dialect

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect configuration.
//
// DuckDB has no implicit row locator that survives concurrent writes, so
// rows are addressed by primary key only. Staged uploads are read with
// read_blob, which returns one row per file.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`, dialect.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Transactions("BEGIN TRANSACTION", "COMMIT", "ROLLBACK").
	Bytes(dialect.BytesBlobEscape).
	StagedReader("(SELECT content FROM read_blob(%s))").
	Variables(dialect.VariablesSet).
	WithFeatures(core.Features{
		AlterColumnType:    true,
		AlterColumnNull:    true,
		AlterColumnDefault: true,
		RenameColumn:       true,
		DropColumn:         true,
		ColumnComments:     true,
		RenameView:         true,
		UpdateDefault:      true,
	}).
	NumericTypes(
		"tinyint", "smallint", "integer", "int", "bigint", "hugeint",
		"utinyint", "usmallint", "uinteger", "ubigint", "uhugeint",
		"decimal", "numeric", "real", "float", "double", "float4", "float8",
	).
	WithReservedWords(
		"select", "from", "where", "group", "order", "by", "table", "index",
		"create", "drop", "alter", "column", "constraint", "default", "check",
		"primary", "foreign", "references", "unique", "null", "not", "and", "or",
		"as", "on", "in", "is", "join", "limit", "offset", "union", "with",
		"user", "case", "when", "then", "else", "end", "true", "false",
	).
	Build()
