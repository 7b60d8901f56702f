package plan

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/editor"
	"github.com/leapstack-labs/leapedit/pkg/script"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// Target is an opened editor with a plan applied to its working state.
type Target interface {
	Preview() (script.Script, synth.Plan, error)
	Submit(ctx context.Context) (editor.Result, error)
	Dirty() bool
}

// Session carries what opening an editor needs.
type Session struct {
	Catalog  core.Catalog
	Dialect  *dialect.Dialect
	Deps     editor.Deps
	RowLimit int
}

// Open opens the editor a document targets and applies its changes.
func Open(ctx context.Context, s Session, d Document) (Target, error) {
	// A bare table name is left unqualified; the catalog resolves it.
	table := d.TableRef()

	switch d.Kind {
	case core.KindColumn:
		return openSchema(ctx, editor.NewColumnEditor(s.Catalog, table, s.Deps), d.Changes)
	case core.KindIndex:
		return openSchema(ctx, editor.NewIndexEditor(s.Catalog, table, s.Deps), d.Changes)
	case core.KindConstraint:
		return openSchema(ctx, editor.NewConstraintEditor(s.Catalog, table, s.Deps), d.Changes)
	case core.KindObject:
		schema := d.Schema
		if schema == "" && s.Dialect != nil {
			schema = s.Dialect.DefaultSchema
		}
		return openSchema(ctx, editor.NewObjectEditor(s.Catalog, schema, s.Deps), d.Changes)
	case core.KindVariable:
		return openSchema(ctx, editor.NewVariableEditor(s.Catalog, s.Deps), d.Changes)
	case core.KindRow:
		limit := s.RowLimit
		if d.Limit != 0 {
			limit = d.Limit
		}
		ed := editor.NewRowEditor(s.Catalog, table, limit, s.Dialect, s.Deps)
		if err := ed.Open(ctx); err != nil {
			return nil, err
		}
		if err := ApplyRows(ed, d.Changes); err != nil {
			return nil, err
		}
		return ed, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", d.Kind)
	}
}

func openSchema[T any](ctx context.Context, ed *editor.Editor[T], changes []Change) (Target, error) {
	if err := ed.Open(ctx); err != nil {
		return nil, err
	}
	if err := ApplySchema(ed.Tracker(), changes); err != nil {
		return nil, err
	}
	return ed, nil
}

// ApplySchema applies changes to a schema entity tracker. Entities are
// found by name in the working collection.
func ApplySchema[T any](tr *tracker.Tracker[T], changes []Change) error {
	for i, c := range changes {
		if err := applySchemaChange(tr, c); err != nil {
			return fmt.Errorf("change %d (%s %s): %w", i+1, c.Op, c.Name, err)
		}
	}
	return nil
}

func applySchemaChange[T any](tr *tracker.Tracker[T], c Change) error {
	if c.Op == OpAdd {
		var v T
		if err := decodeInto(c.Set, &v); err != nil {
			return err
		}
		_, err := tr.Add(v)
		return err
	}

	key, ok := tr.FindByName(c.Name)
	if !ok {
		return fmt.Errorf("no %s named %q", tr.Kind(), c.Name)
	}
	if c.Op == OpDelete {
		return tr.MarkDeleted(key)
	}

	var decodeErr error
	err := tr.Edit(key, func(v *T) {
		decodeErr = decodeInto(c.Set, v)
	})
	if err != nil {
		return err
	}
	return decodeErr
}

// ApplyRows applies changes to a row editor. Match must select exactly one
// row of the working collection.
func ApplyRows(ed *editor.RowEditor, changes []Change) error {
	for i, c := range changes {
		if err := applyRowChange(ed, c); err != nil {
			return fmt.Errorf("change %d (%s): %w", i+1, c.Op, err)
		}
	}
	return nil
}

func applyRowChange(ed *editor.RowEditor, c Change) error {
	tr := ed.Tracker()
	cells, err := parseCells(c.Set)
	if err != nil {
		return err
	}

	var key string
	if c.Op == OpAdd {
		row := ed.NewRow()
		for col, v := range cells {
			row.Set(col, v)
		}
		key, err = tr.Add(row)
		if err != nil {
			return err
		}
		return pasteAll(ed, key, c.Paste)
	}

	key, err = matchRow(tr, c.Match)
	if err != nil {
		return err
	}
	if c.Op == OpDelete {
		return tr.MarkDeleted(key)
	}
	if len(cells) > 0 {
		if err := tr.Edit(key, func(r *core.Row) {
			for col, v := range cells {
				r.Set(col, v)
			}
		}); err != nil {
			return err
		}
	}
	return pasteAll(ed, key, c.Paste)
}

func pasteAll(ed *editor.RowEditor, key string, paste map[string]string) error {
	cols := make([]string, 0, len(paste))
	for col := range paste {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if err := ed.Paste(key, col, paste[col]); err != nil {
			return err
		}
	}
	return nil
}

func matchRow(tr *tracker.Tracker[core.Row], match map[string]any) (string, error) {
	want, err := parseCells(match)
	if err != nil {
		return "", fmt.Errorf("match: %w", err)
	}

	var found []string
	for _, e := range tr.Entities() {
		if e.State() == tracker.Deleted {
			continue
		}
		if rowMatches(e.Current, want) {
			found = append(found, e.Key)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no row matches %s", describeMatch(want))
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%d rows match %s", len(found), describeMatch(want))
	}
}

func rowMatches(r core.Row, want map[string]core.CellValue) bool {
	for col, v := range want {
		got, ok := r.Cells[col]
		if !ok || !got.Equal(v) {
			return false
		}
	}
	return true
}

func describeMatch(m map[string]core.CellValue) string {
	parts := make([]string, 0, len(m))
	for col, v := range m {
		parts = append(parts, col+"="+v.Display())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func parseCells(raw map[string]any) (map[string]core.CellValue, error) {
	cells := make(map[string]core.CellValue, len(raw))
	for col, v := range raw {
		cell, err := core.ParseCell(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		cells[col] = cell
	}
	return cells, nil
}

var (
	cellValueType      = reflect.TypeOf(core.CellValue{})
	constraintTypeType = reflect.TypeOf(core.ConstraintType(""))
	objectTypeType     = reflect.TypeOf(core.ObjectType(""))
)

// decodeInto patches target with the keys present in set. Fields not named
// in set keep their value; named list fields are replaced, not merged.
func decodeInto(set map[string]any, target any) error {
	// A nil cell never reaches the decode hook, so convert it up front.
	input := make(map[string]any, len(set))
	for k, v := range set {
		input[k] = v
	}
	if _, ok := target.(*core.Variable); ok {
		if v, present := input["value"]; present {
			cell, err := core.ParseCell(v)
			if err != nil {
				return fmt.Errorf("value: %w", err)
			}
			input["value"] = cell
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			cellValueHook,
			enumHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid fields: %w", err)
	}
	return nil
}

func cellValueHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != cellValueType {
		return data, nil
	}
	return core.ParseCell(data)
}

// enumHook accepts constraint and object types in any case, with
// underscores for spaces ("primary_key").
func enumHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reflect.ValueOf(data).String()), "_", " "))
	switch to {
	case constraintTypeType:
		return core.ConstraintType(s), nil
	case objectTypeType:
		return core.ObjectType(s), nil
	}
	return data, nil
}
