package editor

import (
	"context"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// NewColumnEditor edits the columns of a table.
func NewColumnEditor(cat core.Catalog, table core.TableRef, deps Deps) *Editor[core.Column] {
	return New(tracker.Columns,
		func(ctx context.Context) ([]core.Column, error) { return cat.Columns(ctx, table) },
		func(es []tracker.Entity[core.Column]) (synth.Plan, error) { return synth.Columns(table, es) },
		deps)
}

// NewIndexEditor edits the secondary indexes of a table.
func NewIndexEditor(cat core.Catalog, table core.TableRef, deps Deps) *Editor[core.Index] {
	return New(tracker.Indexes,
		func(ctx context.Context) ([]core.Index, error) { return cat.Indexes(ctx, table) },
		func(es []tracker.Entity[core.Index]) (synth.Plan, error) { return synth.Indexes(table, es) },
		deps)
}

// NewConstraintEditor edits the constraints of a table.
func NewConstraintEditor(cat core.Catalog, table core.TableRef, deps Deps) *Editor[core.Constraint] {
	return New(tracker.Constraints,
		func(ctx context.Context) ([]core.Constraint, error) { return cat.Constraints(ctx, table) },
		func(es []tracker.Entity[core.Constraint]) (synth.Plan, error) { return synth.Constraints(table, es) },
		deps)
}

// NewObjectEditor renames and drops the tables and views of a schema.
func NewObjectEditor(cat core.Catalog, schema string, deps Deps) *Editor[core.Object] {
	return New(tracker.Objects,
		func(ctx context.Context) ([]core.Object, error) { return cat.Objects(ctx, schema) },
		func(es []tracker.Entity[core.Object]) (synth.Plan, error) { return synth.Objects(schema, es) },
		deps)
}

// NewVariableEditor edits session variables.
func NewVariableEditor(cat core.Catalog, deps Deps) *Editor[core.Variable] {
	return New(tracker.Variables,
		func(ctx context.Context) ([]core.Variable, error) { return cat.Variables(ctx) },
		func(es []tracker.Entity[core.Variable]) (synth.Plan, error) { return synth.Variables(es) },
		deps)
}
