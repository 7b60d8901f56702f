package core

import (
	"reflect"
	"sort"
)

// Field is one comparable field of an entity.
type Field struct {
	Name  string
	Value any
}

// DiffFields compares two field lists by name and returns the names whose
// values differ, in the order they appear in b followed by names only in a.
// Bookkeeping state never appears in a field list, so it never contributes.
func DiffFields(a, b []Field) []string {
	old := make(map[string]any, len(a))
	for _, f := range a {
		old[f.Name] = f.Value
	}
	var changed []string
	seen := make(map[string]struct{}, len(b))
	for _, f := range b {
		seen[f.Name] = struct{}{}
		prev, ok := old[f.Name]
		if !ok || !fieldEqual(prev, f.Value) {
			changed = append(changed, f.Name)
		}
	}
	var removed []string
	for _, f := range a {
		if _, ok := seen[f.Name]; !ok {
			removed = append(removed, f.Name)
		}
	}
	sort.Strings(removed)
	return append(changed, removed...)
}

func fieldEqual(a, b any) bool {
	if ca, ok := a.(CellValue); ok {
		cb, ok := b.(CellValue)
		return ok && ca.Equal(cb)
	}
	// nil slices and empty slices compare equal; both mean "no columns".
	if isEmptySlice(a) && isEmptySlice(b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isEmptySlice(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Slice && rv.Len() == 0
}

// ColumnFields lists the comparable fields of a column. Position is excluded:
// it is assigned by the catalog, not edited.
func ColumnFields(c Column) []Field {
	var def any
	if c.Default != nil {
		def = *c.Default
	}
	return []Field{
		{"name", c.Name},
		{"type", c.Type},
		{"nullable", c.Nullable},
		{"default", def},
		{"comment", c.Comment},
		{"primary_key", c.PrimaryKey},
	}
}

// IndexFields lists the comparable fields of an index.
func IndexFields(i Index) []Field {
	return []Field{
		{"name", i.Name},
		{"unique", i.Unique},
		{"method", i.Method},
		{"columns", i.Columns},
	}
}

// ConstraintFields lists the comparable fields of a constraint.
func ConstraintFields(c Constraint) []Field {
	return []Field{
		{"name", c.Name},
		{"type", c.Type},
		{"columns", c.Columns},
		{"check", c.Check},
		{"ref_table", c.RefTable},
		{"ref_columns", c.RefColumns},
		{"deferrable", c.Deferrable},
		{"initially_deferred", c.InitiallyDeferred},
	}
}

// ObjectFields lists the comparable fields of a catalog object.
func ObjectFields(o Object) []Field {
	return []Field{
		{"name", o.Name},
		{"type", o.Type},
	}
}

// VariableFields lists the comparable fields of a session variable.
func VariableFields(v Variable) []Field {
	return []Field{
		{"name", v.Name},
		{"value", v.Value},
	}
}

// RowFields lists one field per cell, sorted by column name. Missing cells
// are not listed; DiffFields reports them as removed.
func RowFields(r Row) []Field {
	names := make([]string, 0, len(r.Cells))
	for name := range r.Cells {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name, Value: r.Cells[name]})
	}
	return fields
}
