package editor

import (
	"context"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"golang.org/x/sync/errgroup"
)

// TableEditor groups the schema editors of one table.
type TableEditor struct {
	Table       core.TableRef
	Columns     *Editor[core.Column]
	Indexes     *Editor[core.Index]
	Constraints *Editor[core.Constraint]
}

// NewTableEditor creates the column, index and constraint editors of a table.
func NewTableEditor(cat core.Catalog, table core.TableRef, deps Deps) *TableEditor {
	return &TableEditor{
		Table:       table,
		Columns:     NewColumnEditor(cat, table, deps),
		Indexes:     NewIndexEditor(cat, table, deps),
		Constraints: NewConstraintEditor(cat, table, deps),
	}
}

// Open loads all three collections concurrently. A schema change made
// through one editor can change what the others see, so callers reopen the
// whole table after any successful submit.
func (t *TableEditor) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.Columns.Open(gctx) })
	g.Go(func() error { return t.Indexes.Open(gctx) })
	g.Go(func() error { return t.Constraints.Open(gctx) })
	return g.Wait()
}

// Dirty reports whether any of the editors has pending changes.
func (t *TableEditor) Dirty() bool {
	return t.Columns.Dirty() || t.Indexes.Dirty() || t.Constraints.Dirty()
}
