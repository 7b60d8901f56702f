// Package stmt turns synthesis requests into literal DDL and DML for one
// dialect.
package stmt

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

// ErrUnsupported is returned when the dialect has no statement for a request.
var ErrUnsupported = errors.New("not supported by dialect")

// Statement is the text built for one request. SQL holds zero or more
// statements without delimiters; none means no statement is needed.
type Statement struct {
	SQL []string
	Tip string
}

// Empty reports whether no statement is needed.
func (s Statement) Empty() bool {
	return len(s.SQL) == 0
}

// Builder builds statements for requests.
type Builder interface {
	Build(req synth.Request) (Statement, error)
}

// UploadResolver returns the SQL expression that reads staged upload content.
type UploadResolver func(token string) (string, error)

// Option configures a SQLBuilder.
type Option func(*SQLBuilder)

// WithUploadResolver overrides how upload tokens are resolved.
func WithUploadResolver(r UploadResolver) Option {
	return func(b *SQLBuilder) { b.resolveUpload = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *SQLBuilder) { b.logger = logger }
}

// SQLBuilder is the dialect-aware Builder.
type SQLBuilder struct {
	d             *dialect.Dialect
	resolveUpload UploadResolver
	logger        *slog.Logger
}

// New creates a builder for the dialect.
func New(d *dialect.Dialect, opts ...Option) *SQLBuilder {
	b := &SQLBuilder{d: d}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolveUpload == nil {
		b.resolveUpload = d.StagedContent
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// Dialect returns the dialect statements are built for.
func (b *SQLBuilder) Dialect() *dialect.Dialect {
	return b.d
}

// Build dispatches on the request kind.
func (b *SQLBuilder) Build(req synth.Request) (Statement, error) {
	var (
		st  Statement
		err error
	)
	switch req.Kind {
	case core.KindColumn:
		st, err = b.column(req)
	case core.KindIndex:
		st, err = b.index(req)
	case core.KindConstraint:
		st, err = b.constraint(req)
	case core.KindRow:
		st, err = b.row(req)
	case core.KindObject:
		st, err = b.object(req)
	case core.KindVariable:
		st, err = b.variable(req)
	default:
		return Statement{}, fmt.Errorf("unknown entity kind %q", req.Kind)
	}
	if err != nil {
		return Statement{}, fmt.Errorf("%s %s: %w", req.Action, req.Kind, err)
	}
	b.logger.Debug("statement built",
		slog.String("kind", string(req.Kind)),
		slog.String("action", req.Action.String()),
		slog.Int("statements", len(st.SQL)))
	return st, nil
}

func unsupported(d *dialect.Dialect, what string) error {
	return fmt.Errorf("%s: %w %s", what, ErrUnsupported, d.Name)
}

// table renders the qualified table name.
func (b *SQLBuilder) table(t core.TableRef) string {
	return b.d.QualifiedName(t)
}

// ident quotes a single identifier when needed.
func (b *SQLBuilder) ident(name string) string {
	return b.d.QuoteIdentifierIfNeeded(name)
}

func (b *SQLBuilder) identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.ident(n)
	}
	return strings.Join(quoted, ", ")
}

// schemaQualified qualifies a schema-level object name when the dialect
// accepts it.
func (b *SQLBuilder) schemaQualified(schema, name string) string {
	if !b.d.Features.SchemaQualifiedDrop {
		schema = ""
	}
	return b.d.QualifiedName(core.TableRef{Schema: schema, Name: name})
}

func joinTips(tips ...string) string {
	var out []string
	for _, t := range tips {
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}
