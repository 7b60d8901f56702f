package tracker

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Columns describes table columns.
var Columns = Spec[core.Column]{
	Kind:   core.KindColumn,
	Clone:  core.Column.Clone,
	Fields: core.ColumnFields,
	Name:   func(c core.Column) string { return c.Name },
}

// Indexes describes secondary indexes.
var Indexes = Spec[core.Index]{
	Kind:   core.KindIndex,
	Clone:  core.Index.Clone,
	Fields: core.IndexFields,
	Name:   func(i core.Index) string { return i.Name },
}

// Constraints describes table constraints.
var Constraints = Spec[core.Constraint]{
	Kind:   core.KindConstraint,
	Clone:  core.Constraint.Clone,
	Fields: core.ConstraintFields,
	Name:   func(c core.Constraint) string { return c.Name },
}

// Objects describes renameable catalog objects.
var Objects = Spec[core.Object]{
	Kind:   core.KindObject,
	Clone:  core.Object.Clone,
	Fields: core.ObjectFields,
	Name:   func(o core.Object) string { return o.Name },
}

// Variables describes session variables.
var Variables = Spec[core.Variable]{
	Kind:   core.KindVariable,
	Clone:  core.Variable.Clone,
	Fields: core.VariableFields,
	Name:   func(v core.Variable) string { return v.Name },
}

// Rows describes data rows. A row's name is its cell values in column
// order, which is enough to re-find an unchanged row after a reload.
var Rows = Spec[core.Row]{
	Kind:   core.KindRow,
	Clone:  core.Row.Clone,
	Fields: core.RowFields,
	Name:   rowName,
}

func rowName(r core.Row) string {
	cols := make([]string, 0, len(r.Cells))
	for c := range r.Cells {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c+"="+r.Cells[c].Display())
	}
	return strings.Join(parts, ",")
}
