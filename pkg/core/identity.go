package core

// RowIdentity describes how rows of a table can be addressed in UPDATE and
// DELETE statements: by the backend's implicit locator column, by the
// primary key columns, or not at all.
type RowIdentity struct {
	// Locator is the implicit row locator column (ctid, rowid), empty if unsupported.
	Locator string
	// Columns are the primary key columns, in key order.
	Columns []string
}

// Usable reports whether rows can be targeted at all.
func (id RowIdentity) Usable() bool {
	return id.Locator != "" || len(id.Columns) > 0
}

// IdentityValue is one column/value pair of a resolved row address.
type IdentityValue struct {
	Column string
	Value  CellValue
}

// Resolve computes the address of a persisted row from its snapshot.
// It prefers the locator when the row carries one and falls back to the
// key columns, every one of which must hold a concrete value.
func (id RowIdentity) Resolve(snapshot Row) ([]IdentityValue, bool) {
	if id.Locator != "" && snapshot.Locator != "" {
		return []IdentityValue{{Column: id.Locator, Value: Concrete(snapshot.Locator)}}, true
	}
	if len(id.Columns) == 0 {
		return nil, false
	}
	out := make([]IdentityValue, 0, len(id.Columns))
	for _, col := range id.Columns {
		v := snapshot.Cell(col)
		if !v.IsConcrete() {
			return nil, false
		}
		out = append(out, IdentityValue{Column: col, Value: v})
	}
	return out, true
}
