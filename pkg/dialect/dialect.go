// Package dialect provides SQL dialect configuration for statement synthesis.
//
// This package contains the public contract for dialect definitions used by
// the statement builder, script composer and adapters. Concrete dialects are
// registered from pkg/adapters/*/dialect packages.
package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Re-exported enums so dialect definitions only import this package.
const (
	NormLowercase       = core.NormLowercase
	NormUppercase       = core.NormUppercase
	NormCaseSensitive   = core.NormCaseSensitive
	NormCaseInsensitive = core.NormCaseInsensitive

	PlaceholderQuestion = core.PlaceholderQuestion
	PlaceholderDollar   = core.PlaceholderDollar

	BytesXQuote     = core.BytesXQuote
	BytesByteaHex   = core.BytesByteaHex
	BytesBlobEscape = core.BytesBlobEscape

	VariablesSet    = core.VariablesSet
	VariablesPragma = core.VariablesPragma
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	core.DialectConfig

	reservedWords map[string]struct{} // All keywords that need quoting as identifiers
	numericTypes  map[string]struct{} // Base type names treated as numeric
}

// plainIdentifier matches identifiers that never need quoting once normalized.
var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.DialectConfig
	return &cfg
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier when it is reserved, contains
// characters outside [A-Za-z0-9_], or would change under normalization.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !plainIdentifier.MatchString(name) {
		return d.QuoteIdentifier(name)
	}
	if d.Identifiers.Normalization != core.NormCaseInsensitive && d.NormalizeName(name) != name {
		return d.QuoteIdentifier(name)
	}
	return name
}

// QualifiedName renders schema.name with quoting applied to each part.
// An empty schema renders the bare name.
func (d *Dialect) QualifiedName(t core.TableRef) string {
	if t.Schema == "" {
		return d.QuoteIdentifierIfNeeded(t.Name)
	}
	return d.QuoteIdentifierIfNeeded(t.Schema) + "." + d.QuoteIdentifierIfNeeded(t.Name)
}

// QuoteString renders a SQL string literal.
func (d *Dialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ByteLiteral renders a lowercase hex payload as a byte literal.
func (d *Dialect) ByteLiteral(hexPayload string) string {
	switch d.Bytes {
	case core.BytesByteaHex:
		return `'\x` + hexPayload + `'::bytea`
	case core.BytesBlobEscape:
		var b strings.Builder
		b.WriteString("'")
		for i := 0; i+1 < len(hexPayload); i += 2 {
			b.WriteString(`\x`)
			b.WriteString(strings.ToUpper(hexPayload[i : i+2]))
		}
		b.WriteString("'::BLOB")
		return b.String()
	default:
		return "X'" + strings.ToUpper(hexPayload) + "'"
	}
}

// StagedContent renders an expression reading server-side staged content.
func (d *Dialect) StagedContent(token string) (string, error) {
	if d.StagedReader == "" {
		return "", fmt.Errorf("dialect %s cannot read staged content", d.Name)
	}
	return fmt.Sprintf(d.StagedReader, d.QuoteString(token)), nil
}

// IsNumericType reports whether a column type is numeric. Type modifiers
// such as precision and scale are ignored: "numeric(10,2)" is numeric.
func (d *Dialect) IsNumericType(typ string) bool {
	base := strings.ToLower(strings.TrimSpace(typ))
	if i := strings.IndexAny(base, "( "); i >= 0 {
		base = base[:i]
	}
	_, ok := d.numericTypes[base]
	return ok
}

// Terminate appends the statement delimiter.
func (d *Dialect) Terminate(stmt string) string {
	return stmt + d.Delimiter
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name and
// ANSI defaults.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			DialectConfig: core.DialectConfig{
				Name: name,
				Identifiers: core.IdentifierConfig{
					Quote:         `"`,
					QuoteEnd:      `"`,
					Escape:        `""`,
					Normalization: core.NormLowercase,
				},
				Delimiter: ";",
				Begin:     "BEGIN",
				Commit:    "COMMIT",
				Rollback:  "ROLLBACK",
			},
			reservedWords: make(map[string]struct{}),
			numericTypes:  make(map[string]struct{}),
		},
	}
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	b := &Builder{
		dialect: &Dialect{
			DialectConfig: *cfg,
			reservedWords: make(map[string]struct{}),
			numericTypes:  make(map[string]struct{}),
		},
	}
	for _, w := range cfg.Keywords {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	for _, t := range cfg.NumericTypes {
		b.dialect.numericTypes[strings.ToLower(t)] = struct{}{}
	}
	return b
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets the query parameter placeholder style.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Delimiter sets the statement delimiter.
func (b *Builder) Delimiter(delim string) *Builder {
	b.dialect.Delimiter = delim
	return b
}

// Transactions sets the transaction control statements.
func (b *Builder) Transactions(begin, commit, rollback string) *Builder {
	b.dialect.Begin = begin
	b.dialect.Commit = commit
	b.dialect.Rollback = rollback
	return b
}

// RowLocator sets the implicit row address column.
func (b *Builder) RowLocator(column string) *Builder {
	b.dialect.RowLocator = column
	return b
}

// Bytes sets the byte literal style.
func (b *Builder) Bytes(style core.ByteLiteralStyle) *Builder {
	b.dialect.Bytes = style
	return b
}

// StagedReader sets the staged content reader format (one %s for the token).
func (b *Builder) StagedReader(format string) *Builder {
	b.dialect.StagedReader = format
	return b
}

// Variables sets the session variable statement style.
func (b *Builder) Variables(style core.VariableStyle) *Builder {
	b.dialect.DialectConfig.Variables = style
	return b
}

// WithFeatures sets the ALTER capabilities.
func (b *Builder) WithFeatures(f core.Features) *Builder {
	b.dialect.Features = f
	return b
}

// WithReservedWords adds words that must be quoted as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	b.dialect.Keywords = append(b.dialect.Keywords, words...)
	return b
}

// NumericTypes registers base type names treated as numeric.
func (b *Builder) NumericTypes(types ...string) *Builder {
	for _, t := range types {
		b.dialect.numericTypes[strings.ToLower(t)] = struct{}{}
	}
	b.dialect.DialectConfig.NumericTypes = append(b.dialect.DialectConfig.NumericTypes, types...)
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
