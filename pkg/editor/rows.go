package editor

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
	"golang.org/x/sync/errgroup"
)

// RowEditor edits the data of one table. Column metadata and row identity
// are reloaded with every generation.
type RowEditor struct {
	*Editor[core.Row]

	cat      core.Catalog
	table    core.TableRef
	limit    int
	dialect  *dialect.Dialect
	columns  []core.Column
	identity core.RowIdentity
}

// NewRowEditor edits up to limit rows of a table (limit <= 0 loads all).
func NewRowEditor(cat core.Catalog, table core.TableRef, limit int, d *dialect.Dialect, deps Deps) *RowEditor {
	r := &RowEditor{cat: cat, table: table, limit: limit, dialect: d}
	r.Editor = New(tracker.Rows, r.loadRows, r.synthesizeRows, deps)
	return r
}

// Columns returns the column metadata of the current generation.
func (r *RowEditor) Columns() []core.Column {
	return r.columns
}

// Identity returns how rows of the current generation are addressed.
func (r *RowEditor) Identity() core.RowIdentity {
	return r.identity
}

// NewRow returns an empty row: every column holds the default sentinel.
func (r *RowEditor) NewRow() core.Row {
	row := core.NewRow(nil)
	for _, c := range r.columns {
		row.Set(c.Name, core.Default())
	}
	return row
}

// Paste applies pasted text to one cell. Numeric columns are canonicalized;
// text that does not parse as a number leaves the cell unchanged without an
// error.
func (r *RowEditor) Paste(key, column, text string) error {
	if r.Tracker() == nil {
		return ErrNotOpen
	}
	col, ok := r.column(column)
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}
	numeric := r.dialect.IsNumericType(col.Type)
	return r.Tracker().Edit(key, func(row *core.Row) {
		if numeric {
			row.Set(column, synth.PasteNumeric(row.Cell(column), text, r.logger))
			return
		}
		row.Set(column, core.Concrete(text))
	})
}

func (r *RowEditor) column(name string) (core.Column, bool) {
	for _, c := range r.columns {
		if c.Name == name {
			return c, true
		}
	}
	return core.Column{}, false
}

// loadRows reads metadata and rows concurrently.
func (r *RowEditor) loadRows(ctx context.Context) ([]core.Row, error) {
	var (
		columns  []core.Column
		identity core.RowIdentity
		rows     []core.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		columns, err = r.cat.Columns(gctx, r.table)
		return err
	})
	g.Go(func() error {
		var err error
		identity, err = r.cat.RowIdentity(gctx, r.table)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = r.cat.Rows(gctx, r.table, r.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.columns = columns
	r.identity = identity
	return rows, nil
}

func (r *RowEditor) synthesizeRows(es []tracker.Entity[core.Row]) (synth.Plan, error) {
	scope := synth.RowScope{
		Table:           r.table,
		Identity:        r.identity,
		Columns:         make([]string, len(r.columns)),
		ResolveDefaults: !r.dialect.Features.UpdateDefault,
		Defaults:        make(map[string]string),
	}
	for i, c := range r.columns {
		scope.Columns[i] = c.Name
		if c.Default != nil {
			scope.Defaults[c.Name] = *c.Default
		}
	}
	return synth.Rows(scope, es), nil
}
