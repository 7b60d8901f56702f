// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect configuration.
//
// SQLite's ALTER TABLE only supports ADD COLUMN, DROP COLUMN and RENAME;
// column definitions and constraints cannot be changed in place.
// readfile() is provided by the sqlite3 shell and the fileio extension.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`, dialect.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Transactions("BEGIN", "COMMIT", "ROLLBACK").
	RowLocator("rowid").
	Bytes(dialect.BytesXQuote).
	StagedReader("readfile(%s)").
	Variables(dialect.VariablesPragma).
	WithFeatures(core.Features{
		RenameColumn: true,
		DropColumn:   true,
	}).
	NumericTypes(
		"integer", "int", "tinyint", "smallint", "mediumint", "bigint",
		"real", "double", "float", "numeric", "decimal",
	).
	WithReservedWords(
		"select", "from", "where", "group", "order", "by", "table", "index",
		"create", "drop", "alter", "column", "constraint", "default", "check",
		"primary", "foreign", "references", "unique", "null", "not", "and", "or",
		"as", "on", "in", "is", "join", "limit", "offset", "union", "with",
		"case", "when", "then", "else", "end", "transaction", "values",
	).
	Build()
