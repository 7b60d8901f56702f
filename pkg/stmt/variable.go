package stmt

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/shopspring/decimal"
)

var errInvalidVariable = errors.New("invalid variable name")

var (
	variableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	pragmaWord   = regexp.MustCompile(`^[A-Za-z0-9_.+-]+$`)
)

func (b *SQLBuilder) variable(req synth.Request) (Statement, error) {
	var v core.Variable
	if req.Action == synth.ActionDelete {
		v = req.Old.(core.Variable)
	} else {
		v = req.New.(core.Variable)
	}
	if !variableName.MatchString(v.Name) {
		return Statement{}, fmt.Errorf("%w %q", errInvalidVariable, v.Name)
	}

	if b.d.DialectConfig.Variables == dialect.VariablesPragma {
		return b.pragma(req.Action, v)
	}
	if req.Action == synth.ActionDelete || v.Value.IsDefault() {
		return Statement{SQL: []string{"RESET " + v.Name}}, nil
	}
	text, ok := v.Value.Text()
	if !ok {
		return Statement{}, fmt.Errorf("variable %s holds %s: %w", v.Name, v.Value.Tag(), ErrUnsupported)
	}
	value := b.d.QuoteString(text)
	if _, err := decimal.NewFromString(text); err == nil {
		value = text
	}
	return Statement{SQL: []string{fmt.Sprintf("SET %s = %s", v.Name, value)}}, nil
}

func (b *SQLBuilder) pragma(action synth.Action, v core.Variable) (Statement, error) {
	if action == synth.ActionDelete {
		return Statement{}, unsupported(b.d, "resetting pragmas")
	}
	text, ok := v.Value.Text()
	if !ok {
		return Statement{}, fmt.Errorf("pragma %s holds %s: %w", v.Name, v.Value.Tag(), ErrUnsupported)
	}
	value := text
	if !pragmaWord.MatchString(text) {
		value = b.d.QuoteString(text)
	}
	return Statement{SQL: []string{fmt.Sprintf("PRAGMA %s = %s", v.Name, value)}}, nil
}
