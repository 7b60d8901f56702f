package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/editor"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <kind> [table|schema]",
		Short: "Show the columns, indexes, constraints, rows, objects or variables of a target",
		Long: `Load one entity collection from the target and print it.

Kinds: columns, indexes, constraints and rows take a table ("schema.table"
or a bare name in the default schema). objects takes an optional schema.
variables takes no argument.`,
		Example: `  leapedit show columns public.users
  leapedit show rows users --limit 20
  leapedit show objects
  leapedit show variables`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return []string{"columns", "indexes", "constraints", "rows", "objects", "variables"}, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: runShow,
	}
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	kind, ok := core.ParseEntityKind(args[0])
	if !ok {
		return fmt.Errorf("unknown kind %q (expected one of %v)", args[0], core.AllKinds())
	}
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}
	if arg == "" && kind != core.KindObject && kind != core.KindVariable {
		return fmt.Errorf("%s requires a table", kind)
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	d := cc.Adapter.Dialect()
	table := core.ParseTableRef(arg)
	deps := editor.Deps{Logger: cc.Logger}

	switch kind {
	case core.KindColumn:
		return show(ctx, cc.Out, editor.NewColumnEditor(cc.Adapter, table, deps), nil)
	case core.KindIndex:
		return show(ctx, cc.Out, editor.NewIndexEditor(cc.Adapter, table, deps), nil)
	case core.KindConstraint:
		return show(ctx, cc.Out, editor.NewConstraintEditor(cc.Adapter, table, deps), nil)
	case core.KindObject:
		schema := arg
		if schema == "" {
			schema = d.DefaultSchema
		}
		return show(ctx, cc.Out, editor.NewObjectEditor(cc.Adapter, schema, deps), nil)
	case core.KindVariable:
		return show(ctx, cc.Out, editor.NewVariableEditor(cc.Adapter, deps), nil)
	default:
		ed := editor.NewRowEditor(cc.Adapter, table, cc.Cfg.Editor.RowLimit, d, deps)
		if err := ed.Open(ctx); err != nil {
			return err
		}
		cols := make([]string, len(ed.Columns()))
		for i, c := range ed.Columns() {
			cols[i] = c.Name
		}
		renderTracker(cc.Out, ed.Tracker(), cols)
		return nil
	}
}

func show[T any](ctx context.Context, w io.Writer, ed *editor.Editor[T], columns []string) error {
	if err := ed.Open(ctx); err != nil {
		return err
	}
	renderTracker(w, ed.Tracker(), columns)
	return nil
}

func renderTracker[T any](w io.Writer, tr *tracker.Tracker[T], columns []string) {
	entities := tr.Entities()
	items := make([]T, len(entities))
	for i, e := range entities {
		items[i] = e.Current
	}
	renderEntities(w, tr.Spec(), items, columns)
}
