package synth

import (
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

// schemaKind binds the per-kind pieces of schema synthesis.
type schemaKind[T any] struct {
	kind core.EntityKind
	name func(T) string
	// missing returns the first required field that is empty, or "".
	missing func(T) string
}

// synthesizeSchema walks the entities in tracker order. Created and modified
// entities are validated first; any violation fails the batch with no requests.
func synthesizeSchema[T any](k schemaKind[T], scope core.TableRef, entities []tracker.Entity[T]) (Plan, error) {
	var plan Plan
	for _, e := range entities {
		req := Request{Kind: k.kind, Key: e.Key, Scope: scope}
		switch e.State() {
		case tracker.Unchanged:
			continue
		case tracker.Created:
			if f := k.missing(e.Current); f != "" {
				return Plan{}, &FieldError{Kind: k.kind, Key: e.Key, Name: k.name(e.Current), Field: f}
			}
			req.Action = ActionCreate
			req.New = e.Current
		case tracker.Deleted:
			req.Action = ActionDelete
			req.Old = *e.Origin
		case tracker.Modified:
			if f := k.missing(e.Current); f != "" {
				return Plan{}, &FieldError{Kind: k.kind, Key: e.Key, Name: k.name(*e.Origin), Field: f}
			}
			req.Action = ActionAlter
			req.Old = *e.Origin
			req.New = e.Current
		}
		plan.Requests = append(plan.Requests, req)
	}
	return plan, nil
}

var columnKind = schemaKind[core.Column]{
	kind: core.KindColumn,
	name: func(c core.Column) string { return c.Name },
	missing: func(c core.Column) string {
		switch {
		case isBlank(c.Name):
			return "name"
		case isBlank(c.Type):
			return "type"
		}
		return ""
	},
}

var indexKind = schemaKind[core.Index]{
	kind: core.KindIndex,
	name: func(i core.Index) string { return i.Name },
	missing: func(i core.Index) string {
		switch {
		case isBlank(i.Name):
			return "name"
		case !hasColumns(i.Columns):
			return "columns"
		}
		return ""
	},
}

var constraintKind = schemaKind[core.Constraint]{
	kind: core.KindConstraint,
	name: func(c core.Constraint) string { return c.Name },
	missing: func(c core.Constraint) string {
		if isBlank(c.Name) {
			return "name"
		}
		switch c.Type {
		case "":
			return "type"
		case core.ConstraintCheck:
			if isBlank(c.Check) {
				return "check"
			}
		case core.ConstraintForeignKey:
			switch {
			case !hasColumns(c.Columns):
				return "columns"
			case isBlank(c.RefTable):
				return "ref_table"
			case !hasColumns(c.RefColumns):
				return "ref_columns"
			}
		default:
			if !hasColumns(c.Columns) {
				return "columns"
			}
		}
		return ""
	},
}

var objectKind = schemaKind[core.Object]{
	kind: core.KindObject,
	name: func(o core.Object) string { return o.Name },
	missing: func(o core.Object) string {
		if isBlank(o.Name) {
			return "name"
		}
		return ""
	},
}

var variableKind = schemaKind[core.Variable]{
	kind: core.KindVariable,
	name: func(v core.Variable) string { return v.Name },
	missing: func(v core.Variable) string {
		if isBlank(v.Name) {
			return "name"
		}
		return ""
	},
}

// Columns synthesizes column requests for one table.
func Columns(table core.TableRef, entities []tracker.Entity[core.Column]) (Plan, error) {
	return synthesizeSchema(columnKind, table, entities)
}

// Indexes synthesizes index requests for one table.
func Indexes(table core.TableRef, entities []tracker.Entity[core.Index]) (Plan, error) {
	return synthesizeSchema(indexKind, table, entities)
}

// Constraints synthesizes constraint requests for one table.
func Constraints(table core.TableRef, entities []tracker.Entity[core.Constraint]) (Plan, error) {
	return synthesizeSchema(constraintKind, table, entities)
}

// Objects synthesizes rename and drop requests for the objects of one schema.
func Objects(schema string, entities []tracker.Entity[core.Object]) (Plan, error) {
	return synthesizeSchema(objectKind, core.TableRef{Schema: schema}, entities)
}

// Variables synthesizes session variable assignments.
func Variables(entities []tracker.Entity[core.Variable]) (Plan, error) {
	return synthesizeSchema(variableKind, core.TableRef{}, entities)
}
