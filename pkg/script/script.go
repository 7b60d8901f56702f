// Package script composes built statements into one executable script.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/stmt"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

// ErrNothingToSubmit signals that no request produced a statement. It is
// not a failure: callers skip confirmation and execution.
var ErrNothingToSubmit = errors.New("nothing to submit")

// Script is a composed batch.
type Script struct {
	// SQL is the full script text, every statement terminated.
	SQL string
	// Statements are the individual statements without delimiters.
	Statements []string
	// Tips are distinct advisory notes in first-seen order.
	Tips []string
	// Committed is set when the script ends with an explicit COMMIT.
	Committed bool
	// RowErrors lists rows the builder could not render; they are left out
	// and the other rows still run.
	RowErrors []*synth.RowError
}

// Tip joins the advisory notes for display.
func (s Script) Tip() string {
	return strings.Join(s.Tips, "\n")
}

// Option configures a Composer.
type Option func(*Composer)

// WithDelimiter overrides the dialect's statement delimiter.
func WithDelimiter(delim string) Option {
	return func(c *Composer) { c.delimiter = delim }
}

// WithManualCommit makes row scripts end with the dialect's COMMIT.
func WithManualCommit(manual bool) Option {
	return func(c *Composer) { c.manualCommit = manual }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// Composer orders requests, builds them and joins the result.
type Composer struct {
	builder      stmt.Builder
	dialect      *dialect.Dialect
	delimiter    string
	manualCommit bool
	logger       *slog.Logger
}

// New creates a composer for the builder's dialect.
func New(builder stmt.Builder, d *dialect.Dialect, opts ...Option) *Composer {
	c := &Composer{
		builder: builder,
		dialect: d,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// ManualCommit reports whether row scripts get an explicit COMMIT.
func (c *Composer) ManualCommit() bool {
	return c.manualCommit
}

// Compose builds every request in script order. A build error on a schema
// request fails the whole composition; on a row it only drops that row.
// When no statement results, ErrNothingToSubmit is returned.
func (c *Composer) Compose(reqs []synth.Request) (Script, error) {
	ordered := slices.Clone(reqs)
	dropped := droppedColumns(reqs)
	slices.SortStableFunc(ordered, func(a, b synth.Request) int {
		return rank(a, dropped) - rank(b, dropped)
	})

	var out Script
	hasRows := false
	for _, req := range ordered {
		st, err := c.builder.Build(req)
		if err != nil && !req.Kind.IsSchema() {
			c.logger.Debug("row left out of script", slog.String("key", req.Key), slog.Any("error", err))
			out.RowErrors = append(out.RowErrors, &synth.RowError{Key: req.Key, Err: err})
			continue
		}
		if err != nil {
			return Script{}, fmt.Errorf("build %s %s: %w", req.Kind, req.Key, err)
		}
		if st.Empty() {
			continue
		}
		out.Statements = append(out.Statements, st.SQL...)
		out.addTip(st.Tip)
		if req.Kind == core.KindRow {
			hasRows = true
		}
	}
	if len(out.Statements) == 0 {
		return Script{RowErrors: out.RowErrors}, ErrNothingToSubmit
	}

	if hasRows && c.manualCommit {
		out.Statements = append(out.Statements, c.dialect.Commit)
		out.Committed = true
		out.addTip(stmt.ManualCommitTip())
	}

	var sb strings.Builder
	for i, s := range out.Statements {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(c.terminate(s))
	}
	out.SQL = sb.String()

	c.logger.Debug("script composed",
		slog.Int("requests", len(reqs)),
		slog.Int("statements", len(out.Statements)),
		slog.Bool("committed", out.Committed))
	return out, nil
}

// terminate ends a statement with the configured delimiter, falling back to
// the dialect's.
func (c *Composer) terminate(s string) string {
	if c.delimiter == "" {
		return c.dialect.Terminate(s)
	}
	return s + c.delimiter
}

func (s *Script) addTip(tip string) {
	if tip != "" && !slices.Contains(s.Tips, tip) {
		s.Tips = append(s.Tips, tip)
	}
}
