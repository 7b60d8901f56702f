package stmt

import (
	"fmt"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

func (b *SQLBuilder) object(req synth.Request) (Statement, error) {
	switch req.Action {
	case synth.ActionCreate:
		return Statement{}, fmt.Errorf("objects are created by their own editors: %w", ErrUnsupported)
	case synth.ActionDelete:
		o := req.Old.(core.Object)
		return Statement{SQL: []string{fmt.Sprintf("DROP %s %s", o.Type, b.objectName(req.Scope.Schema, o.Name))}}, nil
	}

	old, cur := req.Old.(core.Object), req.New.(core.Object)
	if old.Type != cur.Type {
		return Statement{}, fmt.Errorf("converting %s to %s: %w", old.Type, cur.Type, ErrUnsupported)
	}
	if old.Name == cur.Name {
		return Statement{}, nil
	}
	if old.Type == core.ObjectView && !b.d.Features.RenameView {
		return Statement{}, unsupported(b.d, "renaming views")
	}
	return Statement{SQL: []string{fmt.Sprintf("ALTER %s %s RENAME TO %s",
		old.Type, b.objectName(req.Scope.Schema, old.Name), b.ident(cur.Name))}}, nil
}

func (b *SQLBuilder) objectName(schema, name string) string {
	return b.d.QualifiedName(core.TableRef{Schema: schema, Name: name})
}
