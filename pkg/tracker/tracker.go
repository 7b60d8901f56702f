// Package tracker holds the editable working copy of one entity collection
// and the lifecycle state of every entity in it.
//
// A Tracker is created from a generation of snapshots and is owned by exactly
// one editor session. Its operations only flip lifecycle flags and update
// working values; they never produce statements and never touch the database.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Errors returned by tracker operations.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrEntityDeleted    = errors.New("entity is marked for removal")
	ErrNotDeleted       = errors.New("entity is not marked for removal")
	ErrRemovalConfirmed = errors.New("removal already submitted")
	ErrLocked           = errors.New("collection is locked by a pending submission")
)

// State is the lifecycle state of one entity at synthesis time.
type State int

// Exactly one state describes an entity.
const (
	Unchanged State = iota
	Created
	Modified
	Deleted
)

func (s State) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Spec describes one entity kind to the tracker.
type Spec[T any] struct {
	Kind core.EntityKind
	// Clone deep-copies an entity so snapshots are never aliased.
	Clone func(T) T
	// Fields lists the comparable fields; bookkeeping never appears here.
	Fields func(T) []core.Field
	// Name is the human identity used for display and to re-find an entity
	// in the next generation.
	Name func(T) string
}

// Entity is a tracked entity: current values plus lifecycle flags and the
// snapshot it was loaded from.
type Entity[T any] struct {
	Key      string
	Current  T
	Origin   *T // nil only when Created
	Created  bool
	Deleted  bool
	Modified bool
}

// State reports the single lifecycle state of the entity.
func (e Entity[T]) State() State {
	switch {
	case e.Created:
		return Created
	case e.Deleted:
		return Deleted
	case e.Modified:
		return Modified
	default:
		return Unchanged
	}
}

// Tracker wraps a mutable entity collection.
type Tracker[T any] struct {
	spec     Spec[T]
	entities []*Entity[T]
	locked   bool
	logger   *slog.Logger
}

// New wraps a snapshot generation 1:1. Each entity gets a key that is only
// valid for this generation.
// If logger is nil, a discard logger is used.
func New[T any](spec Spec[T], snapshots []T, logger *slog.Logger) *Tracker[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tracker[T]{
		spec:     spec,
		entities: make([]*Entity[T], 0, len(snapshots)),
		logger:   logger.With(slog.String("kind", string(spec.Kind))),
	}
	for _, snap := range snapshots {
		origin := spec.Clone(snap)
		t.entities = append(t.entities, &Entity[T]{
			Key:     uuid.NewString(),
			Current: spec.Clone(snap),
			Origin:  &origin,
		})
	}
	return t
}

// Kind returns the entity kind.
func (t *Tracker[T]) Kind() core.EntityKind {
	return t.spec.Kind
}

// Spec returns the entity kind description.
func (t *Tracker[T]) Spec() Spec[T] {
	return t.spec
}

// Add appends a user-created entity and returns its key.
func (t *Tracker[T]) Add(initial T) (string, error) {
	if t.locked {
		return "", ErrLocked
	}
	e := &Entity[T]{
		Key:     uuid.NewString(),
		Current: t.spec.Clone(initial),
		Created: true,
	}
	t.entities = append(t.entities, e)
	t.logger.Debug("entity added", slog.String("key", e.Key), slog.String("name", t.spec.Name(initial)))
	return e.Key, nil
}

// Edit applies patch to the working copy. A created entity stays created;
// any other entity has Modified recomputed against its snapshot, so undoing
// every change clears the flag again.
func (t *Tracker[T]) Edit(key string, patch func(*T)) error {
	if t.locked {
		return ErrLocked
	}
	e, err := t.find(key)
	if err != nil {
		return err
	}
	if e.Deleted {
		return fmt.Errorf("edit %s: %w", key, ErrEntityDeleted)
	}
	patch(&e.Current)
	if !e.Created {
		e.Modified = len(t.changedFields(e)) > 0
	}
	t.logger.Debug("entity edited", slog.String("key", key), slog.Bool("modified", e.Modified))
	return nil
}

// MarkDeleted removes a created entity outright; any other entity is flagged
// for removal and its edits are discarded.
func (t *Tracker[T]) MarkDeleted(key string) error {
	if t.locked {
		return ErrLocked
	}
	e, err := t.find(key)
	if err != nil {
		return err
	}
	if e.Created {
		t.entities = slices.DeleteFunc(t.entities, func(x *Entity[T]) bool { return x.Key == key })
		t.logger.Debug("created entity discarded", slog.String("key", key))
		return nil
	}
	e.Current = t.spec.Clone(*e.Origin)
	e.Deleted = true
	e.Modified = false
	t.logger.Debug("entity marked deleted", slog.String("key", key))
	return nil
}

// UnmarkDeleted clears the removal flag. It fails once the removal has been
// handed to the execution gate.
func (t *Tracker[T]) UnmarkDeleted(key string) error {
	if t.locked {
		return ErrRemovalConfirmed
	}
	e, err := t.find(key)
	if err != nil {
		return err
	}
	if !e.Deleted {
		return fmt.Errorf("restore %s: %w", key, ErrNotDeleted)
	}
	e.Deleted = false
	return nil
}

// Reset drops created entities and restores every other entity from its snapshot.
func (t *Tracker[T]) Reset() error {
	if t.locked {
		return ErrLocked
	}
	kept := t.entities[:0]
	for _, e := range t.entities {
		if e.Created {
			continue
		}
		e.Current = t.spec.Clone(*e.Origin)
		e.Deleted = false
		e.Modified = false
		kept = append(kept, e)
	}
	clear(t.entities[len(kept):])
	t.entities = kept
	return nil
}

// Lock freezes the collection while a submission is pending.
func (t *Tracker[T]) Lock() { t.locked = true }

// Unlock releases the collection after a failed or cancelled submission.
func (t *Tracker[T]) Unlock() { t.locked = false }

// Locked reports whether a submission is pending.
func (t *Tracker[T]) Locked() bool { return t.locked }

// Get returns a copy of one entity.
func (t *Tracker[T]) Get(key string) (Entity[T], error) {
	e, err := t.find(key)
	if err != nil {
		return Entity[T]{}, err
	}
	return t.copyOf(e), nil
}

// Find returns the key of the first entity whose current value matches.
func (t *Tracker[T]) Find(match func(T) bool) (string, bool) {
	for _, e := range t.entities {
		if match(e.Current) {
			return e.Key, true
		}
	}
	return "", false
}

// FindByName returns the key of the first entity with the given name.
func (t *Tracker[T]) FindByName(name string) (string, bool) {
	return t.Find(func(v T) bool { return t.spec.Name(v) == name })
}

// Entities returns copies of all entities in stable order: snapshot order
// first, then creation order.
func (t *Tracker[T]) Entities() []Entity[T] {
	out := make([]Entity[T], 0, len(t.entities))
	for _, e := range t.entities {
		out = append(out, t.copyOf(e))
	}
	return out
}

// ChangedFields returns the names of fields that differ from the snapshot.
// Created entities report every field.
func (t *Tracker[T]) ChangedFields(key string) ([]string, error) {
	e, err := t.find(key)
	if err != nil {
		return nil, err
	}
	return t.changedFields(e), nil
}

// Len returns the number of tracked entities, including those marked for removal.
func (t *Tracker[T]) Len() int {
	return len(t.entities)
}

// Dirty reports whether any entity is created, modified or deleted.
func (t *Tracker[T]) Dirty() bool {
	for _, e := range t.entities {
		if e.State() != Unchanged {
			return true
		}
	}
	return false
}

// Counts tallies entities by state.
func (t *Tracker[T]) Counts() map[State]int {
	counts := make(map[State]int, 4)
	for _, e := range t.entities {
		counts[e.State()]++
	}
	return counts
}

func (t *Tracker[T]) find(key string) (*Entity[T], error) {
	for _, e := range t.entities {
		if e.Key == key {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", t.spec.Kind, key, ErrNotFound)
}

func (t *Tracker[T]) changedFields(e *Entity[T]) []string {
	if e.Origin == nil {
		return core.DiffFields(nil, t.spec.Fields(e.Current))
	}
	return core.DiffFields(t.spec.Fields(*e.Origin), t.spec.Fields(e.Current))
}

func (t *Tracker[T]) copyOf(e *Entity[T]) Entity[T] {
	c := *e
	c.Current = t.spec.Clone(e.Current)
	if e.Origin != nil {
		origin := t.spec.Clone(*e.Origin)
		c.Origin = &origin
	}
	return c
}
