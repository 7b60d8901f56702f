package stmt

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

func (b *SQLBuilder) index(req synth.Request) (Statement, error) {
	switch req.Action {
	case synth.ActionCreate:
		sql, err := b.createIndex(req.Scope, req.New.(core.Index))
		if err != nil {
			return Statement{}, err
		}
		return Statement{SQL: []string{sql}}, nil
	case synth.ActionDelete:
		return Statement{SQL: []string{b.dropIndex(req.Scope, req.Old.(core.Index))}}, nil
	}

	old, cur := req.Old.(core.Index), req.New.(core.Index)
	changed := core.DiffFields(core.IndexFields(old), core.IndexFields(cur))
	if len(changed) == 0 {
		return Statement{}, nil
	}
	if b.d.Name == "postgres" && slices.Equal(changed, []string{"name"}) {
		return Statement{SQL: []string{fmt.Sprintf("ALTER INDEX %s RENAME TO %s",
			b.schemaQualified(req.Scope.Schema, old.Name), b.ident(cur.Name))}}, nil
	}
	create, err := b.createIndex(req.Scope, cur)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL: []string{b.dropIndex(req.Scope, old), create},
		Tip: tipReplaceIndex,
	}, nil
}

func (b *SQLBuilder) createIndex(t core.TableRef, ix core.Index) (string, error) {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	using := ""
	if ix.Method != "" {
		if !b.d.Features.IndexMethods {
			return "", unsupported(b.d, "index methods")
		}
		using = " USING " + ix.Method
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s%s (%s)",
		unique, b.ident(ix.Name), b.table(t), using, b.identList(ix.Columns)), nil
}

func (b *SQLBuilder) dropIndex(t core.TableRef, ix core.Index) string {
	return "DROP INDEX " + b.schemaQualified(t.Schema, ix.Name)
}
