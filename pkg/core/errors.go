package core

import "fmt"

// ExecError reports the first failing statement of an executed script.
// Index is zero-based within the split script.
type ExecError struct {
	Index     int
	Statement string
	Cause     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("statement %d failed: %v\n  %s", e.Index+1, e.Cause, e.Statement)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}
