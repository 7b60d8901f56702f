package core

import "strings"

// EntityKind identifies which editor an entity belongs to.
type EntityKind string

// Entity kinds handled by the reconciliation engine.
const (
	KindColumn     EntityKind = "column"
	KindIndex      EntityKind = "index"
	KindConstraint EntityKind = "constraint"
	KindRow        EntityKind = "row"
	KindObject     EntityKind = "object"
	KindVariable   EntityKind = "variable"
)

// AllKinds returns every entity kind in script order.
func AllKinds() []EntityKind {
	return []EntityKind{KindVariable, KindObject, KindColumn, KindConstraint, KindIndex, KindRow}
}

// IsSchema reports whether the kind describes a schema object rather than data.
// Schema kinds fail the whole batch on a validation error; rows fail per row.
func (k EntityKind) IsSchema() bool {
	return k != KindRow
}

// ParseEntityKind converts a user-supplied name (singular or plural) into an EntityKind.
func ParseEntityKind(s string) (EntityKind, bool) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	if name == "indexe" {
		name = "index"
	}
	for _, k := range AllKinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// TableRef addresses a table or view.
type TableRef struct {
	Schema string
	Name   string
}

// ParseTableRef splits "schema.table" into a TableRef.
// A bare name leaves Schema empty so the dialect default applies.
func ParseTableRef(s string) TableRef {
	if i := strings.Index(s, "."); i >= 0 {
		return TableRef{Schema: s[:i], Name: s[i+1:]}
	}
	return TableRef{Name: s}
}

func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
