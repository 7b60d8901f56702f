package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/tracker"
)

var titleCaser = cases.Title(language.English)

// heading turns a field name such as "ref_columns" into "Ref Columns".
func heading(field string) string {
	return titleCaser.String(strings.ReplaceAll(field, "_", " "))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

// renderEntities prints one line per entity using the tracker's field list.
// columns, when set, fixes the column order and keeps names as written
// (row data); otherwise headings come from the field names.
func renderEntities[T any](w io.Writer, spec tracker.Spec[T], items []T, columns []string) {
	if len(items) == 0 {
		_, _ = fmt.Fprintf(w, "(0 %s)\n", plural(spec.Kind))
		return
	}

	t := newTable(w)
	if columns == nil {
		fields := spec.Fields(items[0])
		header := make(table.Row, len(fields))
		for i, f := range fields {
			header[i] = heading(f.Name)
		}
		t.AppendHeader(header)
		for _, item := range items {
			fields := spec.Fields(item)
			row := make(table.Row, len(fields))
			for i, f := range fields {
				row[i] = formatField(f.Value)
			}
			t.AppendRow(row)
		}
	} else {
		header := make(table.Row, len(columns))
		for i, c := range columns {
			header[i] = c
		}
		t.AppendHeader(header)
		for _, item := range items {
			values := make(map[string]any)
			for _, f := range spec.Fields(item) {
				values[f.Name] = f.Value
			}
			row := make(table.Row, len(columns))
			for i, c := range columns {
				row[i] = formatField(values[c])
			}
			t.AppendRow(row)
		}
	}
	t.Render()

	noun := plural(spec.Kind)
	if len(items) == 1 {
		noun = string(spec.Kind)
	}
	_, _ = fmt.Fprintf(w, "(%d %s)\n", len(items), noun)
}

func plural(kind core.EntityKind) string {
	if kind == core.KindIndex {
		return "indexes"
	}
	return string(kind) + "s"
}

func formatField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case core.CellValue:
		return val.Display()
	case []string:
		return strings.Join(val, ", ")
	case bool:
		if val {
			return "yes"
		}
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
