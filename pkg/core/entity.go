package core

import "slices"

// Column is a table column as stored in the catalog.
type Column struct {
	Name       string  `mapstructure:"name" yaml:"name"`
	Type       string  `mapstructure:"type" yaml:"type"`
	Nullable   bool    `mapstructure:"nullable" yaml:"nullable"`
	Default    *string `mapstructure:"default" yaml:"default,omitempty"`
	Comment    string  `mapstructure:"comment" yaml:"comment,omitempty"`
	PrimaryKey bool    `mapstructure:"primary_key" yaml:"primary_key,omitempty"`
	Position   int     `mapstructure:"position" yaml:"position,omitempty"`
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	if c.Default != nil {
		d := *c.Default
		c.Default = &d
	}
	return c
}

// Index is a secondary index on a table.
type Index struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Unique  bool     `mapstructure:"unique" yaml:"unique,omitempty"`
	Method  string   `mapstructure:"method" yaml:"method,omitempty"`
	Columns []string `mapstructure:"columns" yaml:"columns"`
}

// Clone returns a deep copy of the index.
func (i Index) Clone() Index {
	i.Columns = slices.Clone(i.Columns)
	return i
}

// ConstraintType enumerates the table constraint flavours the editor supports.
type ConstraintType string

// Supported constraint types.
const (
	ConstraintPrimaryKey ConstraintType = "PRIMARY KEY"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintCheck      ConstraintType = "CHECK"
	ConstraintForeignKey ConstraintType = "FOREIGN KEY"
)

// Constraint is a table constraint.
type Constraint struct {
	Name              string         `mapstructure:"name" yaml:"name"`
	Type              ConstraintType `mapstructure:"type" yaml:"type"`
	Columns           []string       `mapstructure:"columns" yaml:"columns,omitempty"`
	Check             string         `mapstructure:"check" yaml:"check,omitempty"`
	RefTable          string         `mapstructure:"ref_table" yaml:"ref_table,omitempty"`
	RefColumns        []string       `mapstructure:"ref_columns" yaml:"ref_columns,omitempty"`
	Deferrable        bool           `mapstructure:"deferrable" yaml:"deferrable,omitempty"`
	InitiallyDeferred bool           `mapstructure:"initially_deferred" yaml:"initially_deferred,omitempty"`
}

// Clone returns a deep copy of the constraint.
func (c Constraint) Clone() Constraint {
	c.Columns = slices.Clone(c.Columns)
	c.RefColumns = slices.Clone(c.RefColumns)
	return c
}

// ObjectType distinguishes renameable catalog objects.
type ObjectType string

// Object types.
const (
	ObjectTable ObjectType = "TABLE"
	ObjectView  ObjectType = "VIEW"
)

// Object is a named catalog object (table or view) within a schema.
type Object struct {
	Name string     `mapstructure:"name" yaml:"name"`
	Type ObjectType `mapstructure:"type" yaml:"type"`
}

// Clone returns a copy of the object.
func (o Object) Clone() Object { return o }

// Variable is a session variable (GUC, PRAGMA, SET option).
type Variable struct {
	Name  string    `mapstructure:"name" yaml:"name"`
	Value CellValue `mapstructure:"value" yaml:"value"`
}

// Clone returns a copy of the variable.
func (v Variable) Clone() Variable { return v }

// Row is a single data row keyed by column name.
// Locator carries the backend's implicit row address (ctid, rowid) when the
// loader could surface one.
type Row struct {
	Cells   map[string]CellValue
	Locator string
}

// NewRow builds a row from cells.
func NewRow(cells map[string]CellValue) Row {
	if cells == nil {
		cells = make(map[string]CellValue)
	}
	return Row{Cells: cells}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cells := make(map[string]CellValue, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{Cells: cells, Locator: r.Locator}
}

// Cell returns the value for a column; missing cells read as Default.
func (r Row) Cell(column string) CellValue {
	return r.Cells[column]
}

// Set stores a cell value, allocating the map on first use.
func (r *Row) Set(column string, v CellValue) {
	if r.Cells == nil {
		r.Cells = make(map[string]CellValue)
	}
	r.Cells[column] = v
}

// IsEmpty reports whether every cell is the Default (absence) sentinel.
func (r Row) IsEmpty() bool {
	for _, v := range r.Cells {
		if !v.IsDefault() {
			return false
		}
	}
	return true
}
