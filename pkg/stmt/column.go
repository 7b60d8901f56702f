package stmt

import (
	"fmt"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

func (b *SQLBuilder) column(req synth.Request) (Statement, error) {
	switch req.Action {
	case synth.ActionCreate:
		return b.addColumn(req.Scope, req.New.(core.Column))
	case synth.ActionDelete:
		return b.dropColumn(req.Scope, req.Old.(core.Column))
	default:
		return b.alterColumn(req.Scope, req.Old.(core.Column), req.New.(core.Column))
	}
}

func (b *SQLBuilder) addColumn(t core.TableRef, c core.Column) (Statement, error) {
	def := b.ident(c.Name) + " " + c.Type
	if c.PrimaryKey {
		if !b.d.Features.AddConstraint {
			return Statement{}, unsupported(b.d, "adding a primary key column")
		}
		def += " PRIMARY KEY"
	}
	if !c.Nullable && !c.PrimaryKey {
		def += " NOT NULL"
	}
	if c.Default != nil {
		def += " DEFAULT " + *c.Default
	}
	st := Statement{SQL: []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", b.table(t), def)}}
	if c.Comment != "" {
		comment, err := b.columnComment(t, c.Name, c.Comment)
		if err != nil {
			return Statement{}, err
		}
		st.SQL = append(st.SQL, comment)
	}
	return st, nil
}

func (b *SQLBuilder) dropColumn(t core.TableRef, c core.Column) (Statement, error) {
	if !b.d.Features.DropColumn {
		return Statement{}, unsupported(b.d, "dropping columns")
	}
	return Statement{
		SQL: []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", b.table(t), b.ident(c.Name))},
		Tip: b.dropColumnTip(),
	}, nil
}

// alterColumn emits one statement per changed attribute. A rename comes
// first so later clauses address the column by its new name.
func (b *SQLBuilder) alterColumn(t core.TableRef, old, cur core.Column) (Statement, error) {
	if old.PrimaryKey != cur.PrimaryKey {
		return Statement{}, fmt.Errorf("primary key membership is edited as a constraint: %w", ErrUnsupported)
	}
	table := b.table(t)
	var st Statement
	name := old.Name
	if cur.Name != old.Name {
		if !b.d.Features.RenameColumn {
			return Statement{}, unsupported(b.d, "renaming columns")
		}
		st.SQL = append(st.SQL, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, b.ident(old.Name), b.ident(cur.Name)))
		name = cur.Name
	}
	col := b.ident(name)
	altered := false

	if cur.Type != old.Type {
		if !b.d.Features.AlterColumnType {
			return Statement{}, unsupported(b.d, "changing a column type")
		}
		st.SQL = append(st.SQL, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s", table, col, cur.Type))
		altered = true
	}
	if cur.Nullable != old.Nullable {
		if !b.d.Features.AlterColumnNull {
			return Statement{}, unsupported(b.d, "changing column nullability")
		}
		op := "SET NOT NULL"
		if cur.Nullable {
			op = "DROP NOT NULL"
		}
		st.SQL = append(st.SQL, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", table, col, op))
		altered = true
	}
	if !sameDefault(old.Default, cur.Default) {
		if !b.d.Features.AlterColumnDefault {
			return Statement{}, unsupported(b.d, "changing a column default")
		}
		op := "DROP DEFAULT"
		if cur.Default != nil {
			op = "SET DEFAULT " + *cur.Default
		}
		st.SQL = append(st.SQL, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", table, col, op))
		altered = true
	}
	if cur.Comment != old.Comment {
		comment, err := b.columnComment(t, name, cur.Comment)
		if err != nil {
			return Statement{}, err
		}
		st.SQL = append(st.SQL, comment)
	}
	if altered {
		st.Tip = b.alterColumnTip()
	}
	return st, nil
}

func (b *SQLBuilder) columnComment(t core.TableRef, column, comment string) (string, error) {
	if !b.d.Features.ColumnComments {
		return "", unsupported(b.d, "column comments")
	}
	value := "NULL"
	if comment != "" {
		value = b.d.QuoteString(comment)
	}
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", b.table(t), b.ident(column), value), nil
}

func sameDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
