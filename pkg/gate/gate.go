// Package gate shows a composed script for confirmation, runs it as one
// batch and reports a single outcome.
//
// The gate never touches the tracker. A cancelled or failed run leaves the
// caller's working state exactly as it was, and the script the user last saw
// (including manual edits) is returned so it can be offered again.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// ExecError reports the first failing statement of a batch.
type ExecError = core.ExecError

// ErrEmptyScript is returned when the user clears the script and confirms.
var ErrEmptyScript = errors.New("script is empty")

// Decision is the user's answer to a confirmation.
type Decision int

// Decisions.
const (
	Cancel Decision = iota
	Execute
)

func (d Decision) String() string {
	if d == Execute {
		return "execute"
	}
	return "cancel"
}

// Draft is what the confirmer shows. Script may be edited in place; Tip and
// LastErr are informational.
type Draft struct {
	Script  string
	Tip     string
	LastErr error
	Attempt int
}

// Confirmer asks the user what to do with a draft.
type Confirmer interface {
	Confirm(ctx context.Context, d *Draft) (Decision, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, d *Draft) (Decision, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, d *Draft) (Decision, error) {
	return f(ctx, d)
}

// AutoConfirm executes the first draft and cancels once it has failed.
var AutoConfirm Confirmer = ConfirmFunc(func(_ context.Context, d *Draft) (Decision, error) {
	if d.LastErr != nil {
		return Cancel, nil
	}
	return Execute, nil
})

// Executor runs a script on the session.
type Executor = core.ScriptExecutor

// Execution is one attempt, as handed to a Recorder.
type Execution struct {
	Script   string
	Tip      string
	Attempt  int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Recorder persists executions. Recording failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, e Execution) error
}

// Status is the final state of a run.
type Status int

// Run statuses.
const (
	Succeeded Status = iota
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single result of a run.
type Outcome struct {
	Status Status
	// Script is the last script shown, with the user's edits.
	Script string
	// Err is the last execution error; set for Failed.
	Err      error
	Attempts int
}

// Option configures a Gate.
type Option func(*Gate)

// WithRecorder records every execution.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// Gate runs the confirm/execute loop.
type Gate struct {
	exec      Executor
	confirmer Confirmer
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a gate.
func New(exec Executor, confirmer Confirmer, opts ...Option) *Gate {
	g := &Gate{
		exec:      exec,
		confirmer: confirmer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	return g
}

// Run confirms and executes script until it succeeds or the user cancels.
// After a failure the same, possibly edited, script is offered again with
// the error attached. A non-nil error means the confirmer itself failed.
func (g *Gate) Run(ctx context.Context, script, tip string) (Outcome, error) {
	draft := &Draft{Script: script, Tip: tip}
	for {
		draft.Attempt++
		decision, err := g.confirmer.Confirm(ctx, draft)
		if err != nil {
			return Outcome{}, fmt.Errorf("confirm script: %w", err)
		}
		if decision != Execute {
			g.logger.Info("script cancelled", slog.Int("attempt", draft.Attempt))
			out := Outcome{Status: Cancelled, Script: draft.Script, Attempts: draft.Attempt - 1}
			if draft.LastErr != nil {
				out.Status = Failed
				out.Err = draft.LastErr
			}
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		err = g.execute(ctx, draft)
		if err == nil {
			g.logger.Info("script executed", slog.Int("attempt", draft.Attempt))
			return Outcome{Status: Succeeded, Script: draft.Script, Attempts: draft.Attempt}, nil
		}
		g.logger.Warn("script failed", slog.Int("attempt", draft.Attempt), slog.String("error", err.Error()))
		draft.LastErr = err
	}
}

func (g *Gate) execute(ctx context.Context, draft *Draft) error {
	started := g.now()
	var err error
	if isBlank(draft.Script) {
		err = ErrEmptyScript
	} else {
		err = g.exec.ExecScript(ctx, draft.Script)
	}
	if g.recorder != nil {
		rec := Execution{
			Script:   draft.Script,
			Tip:      draft.Tip,
			Attempt:  draft.Attempt,
			Started:  started,
			Duration: g.now().Sub(started),
			Err:      err,
		}
		if rerr := g.recorder.Record(ctx, rec); rerr != nil {
			g.logger.Warn("failed to record execution", slog.String("error", rerr.Error()))
		}
	}
	return err
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', ';':
		default:
			return false
		}
	}
	return true
}
