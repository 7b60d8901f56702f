// Package editor ties one entity collection to its load, synthesis,
// composition and execution steps and completes the cycle by reloading a
// fresh generation after a successful run.
//
// An Editor is single-threaded: it owns its tracker exclusively and must
// not be used from more than one goroutine at a time.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapedit/pkg/gate"
	"github.com/leapstack-labs/leapedit/pkg/script"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// ErrNotOpen is returned before the first successful Open.
var ErrNotOpen = errors.New("editor is not open")

// Loader reads a fresh snapshot generation.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Synthesizer turns tracked entities into a plan.
type Synthesizer[T any] func(entities []tracker.Entity[T]) (synth.Plan, error)

// Status is the result of a submission.
type Status int

// Submission statuses.
const (
	// StatusNothing means no statement was needed; the gate was not invoked.
	StatusNothing Status = iota
	StatusSuccess
	StatusFailed
	StatusCancelled
	// StatusInvalid means synthesis or composition failed; nothing ran.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusNothing:
		return "nothing to submit"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result describes one submission.
type Result struct {
	Status Status
	// Script is the script as last shown to the user, edits included.
	Script string
	Tip    string
	// RowErrors lists rows that were left out of the script.
	RowErrors []*synth.RowError
	// Err is the execution error of a failed submission.
	Err error
	// Generation is the tracker generation after the submission.
	Generation int
}

// Deps are the collaborators shared by the editors of one session.
type Deps struct {
	Composer *script.Composer
	Gate     *gate.Gate
	Logger   *slog.Logger
}

// Editor drives one entity collection.
type Editor[T any] struct {
	spec       tracker.Spec[T]
	load       Loader[T]
	synthesize Synthesizer[T]
	composer   *script.Composer
	gate       *gate.Gate
	logger     *slog.Logger

	tracker    *tracker.Tracker[T]
	generation int
	selected   string
}

// New creates an editor. Call Open before use.
func New[T any](spec tracker.Spec[T], load Loader[T], synthesize Synthesizer[T], deps Deps) *Editor[T] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor[T]{
		spec:       spec,
		load:       load,
		synthesize: synthesize,
		composer:   deps.Composer,
		gate:       deps.Gate,
		logger:     logger.With(slog.String("editor", string(spec.Kind))),
	}
}

// Open loads a generation, discarding any working state.
func (e *Editor[T]) Open(ctx context.Context) error {
	return e.reload(ctx)
}

// Tracker returns the current generation's tracker.
func (e *Editor[T]) Tracker() *tracker.Tracker[T] {
	return e.tracker
}

// Dirty reports whether the working collection has pending changes.
func (e *Editor[T]) Dirty() bool {
	return e.tracker != nil && e.tracker.Dirty()
}

// Generation counts successful loads.
func (e *Editor[T]) Generation() int {
	return e.generation
}

// Select marks an entity of the current generation as selected.
func (e *Editor[T]) Select(key string) error {
	if e.tracker == nil {
		return ErrNotOpen
	}
	if _, err := e.tracker.Get(key); err != nil {
		return err
	}
	e.selected = key
	return nil
}

// Selected returns the selected entity, if it still exists.
func (e *Editor[T]) Selected() (tracker.Entity[T], bool) {
	if e.tracker == nil || e.selected == "" {
		return tracker.Entity[T]{}, false
	}
	ent, err := e.tracker.Get(e.selected)
	if err != nil {
		return tracker.Entity[T]{}, false
	}
	return ent, true
}

// Preview synthesizes and composes without running anything.
func (e *Editor[T]) Preview() (script.Script, synth.Plan, error) {
	if e.tracker == nil {
		return script.Script{}, synth.Plan{}, ErrNotOpen
	}
	plan, err := e.synthesize(e.tracker.Entities())
	if err != nil {
		return script.Script{}, plan, err
	}
	if plan.Empty() {
		return script.Script{}, plan, script.ErrNothingToSubmit
	}
	s, err := e.composer.Compose(plan.Requests)
	plan.RowErrors = append(plan.RowErrors, s.RowErrors...)
	return s, plan, err
}

// Submit reconciles the working collection with the database.
//
// The tracker is locked while the script is at the gate. On success a new
// generation is loaded and the selection is re-found by name. On failure or
// cancel the tracker is unlocked and left exactly as it was.
func (e *Editor[T]) Submit(ctx context.Context) (Result, error) {
	if e.tracker == nil {
		return Result{}, ErrNotOpen
	}
	tr := e.tracker
	tr.Lock()
	defer tr.Unlock()

	s, plan, err := e.Preview()
	res := Result{RowErrors: plan.RowErrors, Generation: e.generation}
	if errors.Is(err, script.ErrNothingToSubmit) {
		e.logger.Debug("nothing to submit", slog.Int("row_errors", len(plan.RowErrors)))
		res.Status = StatusNothing
		return res, nil
	}
	if err != nil {
		res.Status = StatusInvalid
		return res, err
	}
	res.Tip = s.Tip()

	out, err := e.gate.Run(ctx, s.SQL, res.Tip)
	if err != nil {
		return res, err
	}
	res.Script = out.Script
	switch out.Status {
	case gate.Cancelled:
		res.Status = StatusCancelled
		return res, nil
	case gate.Failed:
		res.Status = StatusFailed
		res.Err = out.Err
		return res, nil
	}

	res.Status = StatusSuccess
	// The applied generation is gone even if the reload fails; until Open
	// succeeds again the editor reports ErrNotOpen.
	selectedName := e.selectedName()
	e.tracker = nil
	e.selected = ""
	if err := e.loadGeneration(ctx, selectedName); err != nil {
		return res, fmt.Errorf("reload after submit: %w", err)
	}
	res.Generation = e.generation
	return res, nil
}

func (e *Editor[T]) selectedName() string {
	if ent, ok := e.Selected(); ok {
		return e.spec.Name(ent.Current)
	}
	return ""
}

// reload replaces the tracker with a fresh generation and re-finds the
// selection by name, since keys do not survive a generation.
func (e *Editor[T]) reload(ctx context.Context) error {
	return e.loadGeneration(ctx, e.selectedName())
}

func (e *Editor[T]) loadGeneration(ctx context.Context, selectedName string) error {
	snapshots, err := e.load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.spec.Kind, err)
	}
	e.tracker = tracker.New(e.spec, snapshots, e.logger)
	e.generation++
	e.selected = ""
	if selectedName != "" {
		if key, ok := e.tracker.FindByName(selectedName); ok {
			e.selected = key
		}
	}
	e.logger.Debug("generation loaded",
		slog.Int("generation", e.generation),
		slog.Int("entities", len(snapshots)),
		slog.Bool("selection_kept", e.selected != ""))
	return nil
}
