// Package plan reads YAML edit plans: a list of add, edit and delete
// operations against one entity collection, applied to an editor's working
// state before it is previewed or submitted.
//
//	kind: row
//	table: public.users
//	changes:
//	  - op: edit
//	    match: {id: 1}
//	    set: {email: new@example.com, avatar: {hex: "ff00"}}
//	  - op: delete
//	    match: {id: 2}
//	  - op: add
//	    set: {id: 3, email: $default}
//
// A file may hold several documents separated by "---".
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapedit/pkg/core"
)

// Op is a change operation.
type Op string

// Operations.
const (
	OpAdd    Op = "add"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// Document is one edit plan.
type Document struct {
	Kind core.EntityKind `yaml:"kind"`
	// Table is "schema.table" for column, index, constraint and row plans.
	Table string `yaml:"table"`
	// Schema scopes object plans.
	Schema  string   `yaml:"schema"`
	Limit   int      `yaml:"limit"`
	Changes []Change `yaml:"changes"`
}

// Change is one operation.
//
// Schema entities are addressed by Name. Rows are addressed by Match, a
// subset of cell values that must identify exactly one row.
type Change struct {
	Op    Op             `yaml:"op"`
	Name  string         `yaml:"name"`
	Match map[string]any `yaml:"match"`
	// Set patches fields (schema entities) or cells (rows).
	Set map[string]any `yaml:"set"`
	// Paste applies text to row cells the way a grid paste does: numeric
	// columns keep their value when the text is not a number.
	Paste map[string]string `yaml:"paste"`
}

// TableRef returns the table the document targets.
func (d Document) TableRef() core.TableRef {
	return core.ParseTableRef(d.Table)
}

// Validate checks the document shape; it does not look at the database.
func (d Document) Validate() error {
	kind, ok := core.ParseEntityKind(string(d.Kind))
	if !ok {
		return fmt.Errorf("unknown kind %q (expected one of %v)", d.Kind, core.AllKinds())
	}
	switch kind {
	case core.KindColumn, core.KindIndex, core.KindConstraint, core.KindRow:
		if d.Table == "" {
			return fmt.Errorf("%s plan requires a table", kind)
		}
	}
	if len(d.Changes) == 0 {
		return errors.New("plan has no changes")
	}
	for i, c := range d.Changes {
		if err := c.validate(kind); err != nil {
			return fmt.Errorf("change %d: %w", i+1, err)
		}
	}
	return nil
}

func (c Change) validate(kind core.EntityKind) error {
	switch c.Op {
	case OpAdd:
		if len(c.Set) == 0 && len(c.Paste) == 0 {
			return errors.New("add requires set")
		}
		return nil
	case OpEdit, OpDelete:
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	if kind == core.KindRow {
		if len(c.Match) == 0 {
			return fmt.Errorf("%s of a row requires match", c.Op)
		}
	} else if c.Name == "" {
		return fmt.Errorf("%s requires name", c.Op)
	}
	if c.Op == OpEdit && len(c.Set) == 0 && len(c.Paste) == 0 {
		return errors.New("edit requires set or paste")
	}
	if len(c.Paste) > 0 && kind != core.KindRow {
		return errors.New("paste only applies to rows")
	}
	return nil
}

// Parse reads every document from r.
func Parse(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var docs []Document
	for {
		var d Document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse plan: %w", err)
		}
		if d.Kind == "" && len(d.Changes) == 0 {
			continue
		}
		kind, ok := core.ParseEntityKind(string(d.Kind))
		if ok {
			d.Kind = kind
		}
		for i := range d.Changes {
			d.Changes[i].Op = Op(strings.ToLower(string(d.Changes[i].Op)))
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("plan %d: %w", len(docs)+1, err)
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return nil, errors.New("no plan documents found")
	}
	return docs, nil
}

// ParseFile reads a plan file. "-" reads standard input.
func ParseFile(path string) ([]Document, error) {
	if path == "-" {
		return Parse(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return Parse(bytes.NewReader(data))
}
