package synth

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Row-scoped synthesis failures.
var (
	ErrEmptyRow          = errors.New("empty row: nothing to submit")
	ErrUnidentifiableRow = errors.New("row cannot be identified: no row locator or primary key")
)

// ErrMissingField is matched by every FieldError.
var ErrMissingField = errors.New("required field is empty")

// FieldError fails a whole schema batch: a created or modified entity is
// missing a required field.
type FieldError struct {
	Kind  core.EntityKind
	Key   string
	Name  string
	Field string
}

func (e *FieldError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("new %s: %s is required", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s %q: %s is required", e.Kind, e.Name, e.Field)
}

// Is lets errors.Is(err, ErrMissingField) match.
func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// RowError reports a row that produced no request.
type RowError struct {
	Key string
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %s: %v", e.Key, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
