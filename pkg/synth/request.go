// Package synth decides, for every tracked entity, whether a create, alter or
// delete request applies and emits it for the statement builder.
//
// Synthesis is a pure computation over a tracker's entities. Schema kinds
// validate the whole batch up front and fail it on the first missing required
// field. Rows are validated one at a time; a row that cannot be synthesized
// is reported in Plan.RowErrors and its siblings still produce requests.
package synth

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Action is what a request asks the statement builder to do.
type Action int

// Request actions.
const (
	ActionCreate Action = iota
	ActionAlter
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionAlter:
		return "alter"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Request is a single build request for one entity.
//
// Old and New hold the entity definition (core.Column, core.Index,
// core.Constraint, core.Object or core.Variable). Create requests carry only
// New, delete requests only Old, alter requests both. Row requests leave
// Old and New nil and use Cells and Identity instead.
type Request struct {
	Kind   core.EntityKind
	Action Action
	// Key is the tracker key of the entity, for error reporting.
	Key string
	// Scope is the owning table. Objects only use Scope.Schema; variables ignore it.
	Scope core.TableRef

	Old any
	New any

	// Cells are the row values to write: every non-default cell on insert,
	// only the changed cells on update.
	Cells []Cell
	// Identity addresses the row on update and delete.
	Identity []core.IdentityValue
}

// Cell is one column assignment of a row request.
type Cell struct {
	Column string
	Value  core.CellValue
	// Expr, when set, is a catalog default expression written in place of a
	// Default value on backends that cannot SET col = DEFAULT.
	Expr string
}

// Plan is the result of synthesizing one collection.
type Plan struct {
	Requests  []Request
	RowErrors []*RowError
}

// Empty reports whether the plan carries no requests.
func (p Plan) Empty() bool {
	return len(p.Requests) == 0
}
