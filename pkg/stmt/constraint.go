package stmt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

func (b *SQLBuilder) constraint(req synth.Request) (Statement, error) {
	switch req.Action {
	case synth.ActionCreate:
		sql, err := b.addConstraint(req.Scope, req.New.(core.Constraint))
		if err != nil {
			return Statement{}, err
		}
		return Statement{SQL: []string{sql}}, nil
	case synth.ActionDelete:
		sql, err := b.dropConstraint(req.Scope, req.Old.(core.Constraint))
		if err != nil {
			return Statement{}, err
		}
		return Statement{SQL: []string{sql}}, nil
	}

	old, cur := req.Old.(core.Constraint), req.New.(core.Constraint)
	changed := core.DiffFields(core.ConstraintFields(old), core.ConstraintFields(cur))
	if len(changed) == 0 {
		return Statement{}, nil
	}
	table := b.table(req.Scope)
	if b.d.Features.AddConstraint && slices.Equal(changed, []string{"name"}) {
		return Statement{SQL: []string{fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s",
			table, b.ident(old.Name), b.ident(cur.Name))}}, nil
	}
	if b.d.Features.DeferrableCheck && cur.Type == core.ConstraintForeignKey && onlyDeferral(changed) {
		return Statement{SQL: []string{fmt.Sprintf("ALTER TABLE %s ALTER CONSTRAINT %s %s",
			table, b.ident(cur.Name), deferral(cur, true))}}, nil
	}

	drop, err := b.dropConstraint(req.Scope, old)
	if err != nil {
		return Statement{}, err
	}
	add, err := b.addConstraint(req.Scope, cur)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: []string{drop, add}, Tip: tipReplaceConstraint}, nil
}

func (b *SQLBuilder) addConstraint(t core.TableRef, c core.Constraint) (string, error) {
	if !b.d.Features.AddConstraint {
		return "", unsupported(b.d, "adding constraints to an existing table")
	}
	def, err := b.constraintDef(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", b.table(t), b.ident(c.Name), def), nil
}

func (b *SQLBuilder) dropConstraint(t core.TableRef, c core.Constraint) (string, error) {
	if !b.d.Features.DropConstraint {
		return "", unsupported(b.d, "dropping constraints")
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", b.table(t), b.ident(c.Name)), nil
}

func (b *SQLBuilder) constraintDef(c core.Constraint) (string, error) {
	var def string
	switch c.Type {
	case core.ConstraintPrimaryKey:
		def = fmt.Sprintf("PRIMARY KEY (%s)", b.identList(c.Columns))
	case core.ConstraintUnique:
		def = fmt.Sprintf("UNIQUE (%s)", b.identList(c.Columns))
	case core.ConstraintCheck:
		if c.Deferrable || c.InitiallyDeferred {
			return "", fmt.Errorf("check constraints cannot be deferrable: %w", ErrUnsupported)
		}
		return fmt.Sprintf("CHECK (%s)", c.Check), nil
	case core.ConstraintForeignKey:
		def = fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			b.identList(c.Columns), b.d.QualifiedName(core.ParseTableRef(c.RefTable)), b.identList(c.RefColumns))
	default:
		return "", fmt.Errorf("constraint type %q: %w", c.Type, ErrUnsupported)
	}
	if c.Deferrable || c.InitiallyDeferred {
		if !b.d.Features.DeferrableCheck {
			return "", unsupported(b.d, "deferrable constraints")
		}
		def += " " + deferral(c, false)
	}
	return def, nil
}

// deferral renders the deferral clause. explicit also spells out the
// defaults, as ALTER CONSTRAINT needs.
// Initially deferred implies deferrable.
func deferral(c core.Constraint, explicit bool) string {
	deferrable := c.Deferrable || c.InitiallyDeferred
	var parts []string
	switch {
	case deferrable:
		parts = append(parts, "DEFERRABLE")
	case explicit:
		parts = append(parts, "NOT DEFERRABLE")
	}
	switch {
	case c.InitiallyDeferred:
		parts = append(parts, "INITIALLY DEFERRED")
	case explicit && deferrable:
		parts = append(parts, "INITIALLY IMMEDIATE")
	}
	return strings.Join(parts, " ")
}

func onlyDeferral(changed []string) bool {
	for _, f := range changed {
		if f != "deferrable" && f != "initially_deferred" {
			return false
		}
	}
	return true
}
