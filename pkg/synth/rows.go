package synth

import (
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// RowScope is what row synthesis needs to know about the table.
type RowScope struct {
	Table    core.TableRef
	Identity core.RowIdentity
	// Columns fixes the order of emitted cells. Columns not listed follow in
	// name order.
	Columns []string
	// ResolveDefaults rewrites a cell reset to Default on update into the
	// column's default expression, or NULL when Defaults has none.
	ResolveDefaults bool
	Defaults        map[string]string
}

// updateCell is the assignment for one changed cell of an update.
func (s RowScope) updateCell(col string, v core.CellValue) Cell {
	if !v.IsDefault() || !s.ResolveDefaults {
		return Cell{Column: col, Value: v}
	}
	if expr, ok := s.Defaults[col]; ok && !isBlank(expr) {
		return Cell{Column: col, Value: v, Expr: expr}
	}
	return Cell{Column: col, Value: core.Null()}
}

// Rows synthesizes INSERT, UPDATE and DELETE requests. Failures are scoped
// to the row: an empty created row or a row without identity is reported in
// RowErrors and never reaches the statement builder.
func Rows(scope RowScope, entities []tracker.Entity[core.Row]) Plan {
	var plan Plan
	for _, e := range entities {
		req := Request{Kind: core.KindRow, Key: e.Key, Scope: scope.Table}
		switch e.State() {
		case tracker.Unchanged:
			continue
		case tracker.Created:
			if e.Current.IsEmpty() {
				plan.RowErrors = append(plan.RowErrors, &RowError{Key: e.Key, Err: ErrEmptyRow})
				continue
			}
			req.Action = ActionCreate
			for _, col := range scope.order(e.Current, core.Row{}) {
				if v := e.Current.Cell(col); !v.IsDefault() {
					req.Cells = append(req.Cells, Cell{Column: col, Value: v})
				}
			}
		case tracker.Modified, tracker.Deleted:
			// Identity always comes from the snapshot: an edited key column
			// must still address the row as it is stored.
			id, ok := scope.Identity.Resolve(*e.Origin)
			if !ok {
				plan.RowErrors = append(plan.RowErrors, &RowError{Key: e.Key, Err: ErrUnidentifiableRow})
				continue
			}
			req.Identity = id
			if e.Deleted {
				req.Action = ActionDelete
				break
			}
			req.Action = ActionAlter
			for _, col := range scope.order(e.Current, *e.Origin) {
				v := e.Current.Cell(col)
				if !v.Equal(e.Origin.Cell(col)) {
					req.Cells = append(req.Cells, scope.updateCell(col, v))
				}
			}
			if len(req.Cells) == 0 {
				continue
			}
		}
		plan.Requests = append(plan.Requests, req)
	}
	return plan
}

// order returns the scope columns followed by any other column present in
// either row, sorted by name.
func (s RowScope) order(a, b core.Row) []string {
	cols := slices.Clone(s.Columns)
	var extra []string
	for _, r := range []core.Row{a, b} {
		for col := range r.Cells {
			if !slices.Contains(cols, col) && !slices.Contains(extra, col) {
				extra = append(extra, col)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func hasColumns(cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if isBlank(c) {
			return false
		}
	}
	return true
}
