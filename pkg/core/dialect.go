package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data with no handler functions.
//
// The runtime behavior (quoting, literal rendering) lives in
// pkg/dialect.Dialect, which embeds this config.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// Delimiter terminates statements in a composed script.
	Delimiter string

	// Begin and Commit open and close an explicit transaction.
	Begin    string
	Commit   string
	Rollback string

	// RowLocator is the implicit row address column ("ctid", "rowid"), empty if none.
	RowLocator string

	// Bytes selects how hex payloads are rendered as byte literals.
	Bytes ByteLiteralStyle

	// StagedReader is a format string with one %s (the quoted token) that
	// reads server-side staged content, e.g. "pg_read_binary_file(%s)".
	StagedReader string

	// Variables selects the statement shape used for session variables.
	Variables VariableStyle

	// Features lists optional ALTER capabilities.
	Features Features

	// Keywords and types
	Keywords     []string
	NumericTypes []string
}

// Features are the ALTER capabilities that differ between backends.
type Features struct {
	AlterColumnType     bool
	AlterColumnNull     bool
	AlterColumnDefault  bool
	RenameColumn        bool
	DropColumn          bool
	ColumnComments      bool
	AddConstraint       bool
	DropConstraint      bool
	DeferrableCheck     bool
	IndexMethods        bool
	SchemaQualifiedDrop bool
	RenameView          bool
	// UpdateDefault means "SET col = DEFAULT" is accepted in UPDATE.
	UpdateDefault bool
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly (MySQL, ClickHouse).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (BigQuery, Hive, DuckDB).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// ByteLiteralStyle selects the byte literal syntax.
type ByteLiteralStyle int

const (
	// BytesXQuote renders X'DEADBEEF' (SQLite, standard SQL).
	BytesXQuote ByteLiteralStyle = iota
	// BytesByteaHex renders '\xdeadbeef'::bytea (PostgreSQL).
	BytesByteaHex
	// BytesBlobEscape renders '\xDE\xAD\xBE\xEF'::BLOB (DuckDB).
	BytesBlobEscape
)

// VariableStyle selects how session variables are assigned.
type VariableStyle int

const (
	// VariablesSet uses SET name = value / RESET name.
	VariablesSet VariableStyle = iota
	// VariablesPragma uses PRAGMA name = value.
	VariablesPragma
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}
