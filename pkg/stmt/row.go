package stmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

func (b *SQLBuilder) row(req synth.Request) (Statement, error) {
	table := b.table(req.Scope)
	switch req.Action {
	case synth.ActionCreate:
		cols := make([]string, 0, len(req.Cells))
		vals := make([]string, 0, len(req.Cells))
		for _, c := range req.Cells {
			v, err := b.cellLiteral(c.Value)
			if err != nil {
				return Statement{}, fmt.Errorf("column %s: %w", c.Column, err)
			}
			cols = append(cols, b.ident(c.Column))
			vals = append(vals, v)
		}
		return Statement{SQL: []string{fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(vals, ", "))}}, nil

	case synth.ActionDelete:
		where, err := b.where(req.Identity)
		if err != nil {
			return Statement{}, err
		}
		return Statement{SQL: []string{fmt.Sprintf("DELETE FROM %s WHERE %s", table, where)}}, nil
	}

	if len(req.Cells) == 0 {
		return Statement{}, nil
	}
	sets := make([]string, 0, len(req.Cells))
	for _, c := range req.Cells {
		var v string
		switch {
		case c.Expr != "":
			v = c.Expr
		case c.Value.IsDefault():
			if !b.d.Features.UpdateDefault {
				return Statement{}, unsupported(b.d, "resetting a cell to its default")
			}
			v = "DEFAULT"
		default:
			var err error
			if v, err = b.cellLiteral(c.Value); err != nil {
				return Statement{}, fmt.Errorf("column %s: %w", c.Column, err)
			}
		}
		sets = append(sets, b.ident(c.Column)+" = "+v)
	}
	where, err := b.where(req.Identity)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: []string{fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		table, strings.Join(sets, ", "), where)}}, nil
}

// cellLiteral renders a non-default cell. Concrete values are always string
// literals and left to the backend to coerce; large objects follow their
// origin, never their preview.
func (b *SQLBuilder) cellLiteral(v core.CellValue) (string, error) {
	switch v.Tag() {
	case core.CellNull:
		return "NULL", nil
	case core.CellConcrete:
		text, _ := v.Text()
		return b.d.QuoteString(text), nil
	case core.CellLob:
		ref, _ := v.LobRef()
		switch ref.Origin {
		case core.LobHex:
			return b.d.ByteLiteral(ref.Payload), nil
		case core.LobUpload:
			return b.resolveUpload(ref.Payload)
		default:
			return b.d.QuoteString(ref.Payload), nil
		}
	}
	return "", fmt.Errorf("cell value %s has no literal form", v.Tag())
}

func (b *SQLBuilder) where(identity []core.IdentityValue) (string, error) {
	if len(identity) == 0 {
		return "", synth.ErrUnidentifiableRow
	}
	conds := make([]string, 0, len(identity))
	for _, id := range identity {
		if b.d.RowLocator != "" && id.Column == b.d.RowLocator {
			conds = append(conds, id.Column+" = "+b.locatorLiteral(id.Value))
			continue
		}
		v, err := b.cellLiteral(id.Value)
		if err != nil {
			return "", fmt.Errorf("key column %s: %w", id.Column, err)
		}
		conds = append(conds, b.ident(id.Column)+" = "+v)
	}
	return strings.Join(conds, " AND "), nil
}

// locatorLiteral leaves integer locators (rowid) bare and quotes the rest
// (ctid).
func (b *SQLBuilder) locatorLiteral(v core.CellValue) string {
	text, _ := v.Text()
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return text
	}
	return b.d.QuoteString(text)
}
