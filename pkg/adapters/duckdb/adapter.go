// Package duckdb provides a DuckDB database adapter for LeapEdit.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	ddbdialect "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dial: ddbdialect.DuckDB},
	}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return ddbdialect.DuckDB
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	if err := a.Open(ctx, "duckdb", path); err != nil {
		return err
	}
	a.Cfg = cfg

	if err := a.setupSession(ctx, params); err != nil {
		_ = a.Close()
		a.DB = nil
		return err
	}
	return nil
}

// setupSession loads extensions, then applies settings in name order.
func (a *Adapter) setupSession(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		a.Logger.Debug("loading extension", slog.String("extension", ext))
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = %s", k, ddbdialect.DuckDB.QuoteString(p.Settings[k]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

const columnsQuery = `
	SELECT column_name, data_type, is_nullable, column_default, comment, column_index
	FROM duckdb_columns()
	WHERE schema_name = ? AND table_name = ?
	ORDER BY column_index`

const primaryKeyQuery = `
	SELECT unnest(constraint_column_names)
	FROM duckdb_constraints()
	WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'`

// Columns lists the columns of a table in ordinal order.
func (a *Adapter) Columns(ctx context.Context, table core.TableRef) ([]core.Column, error) {
	table = adapter.ResolveTable(table, a.Dial)

	pk, err := a.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}

	var columns []core.Column
	err = a.QueryAll(ctx, columnsQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			col     core.Column
			def     sql.NullString
			comment sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &def, &comment, &col.Position); err != nil {
			return err
		}
		if def.Valid {
			col.Default = &def.String
		}
		col.Comment = comment.String
		for _, k := range pk {
			if strings.EqualFold(k, col.Name) {
				col.PrimaryKey = true
			}
		}
		columns = append(columns, col)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

func (a *Adapter) primaryKey(ctx context.Context, table core.TableRef) ([]string, error) {
	var cols []string
	err := a.QueryAll(ctx, primaryKeyQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var col string
		if err := rows.Scan(&col); err != nil {
			return err
		}
		cols = append(cols, col)
		return nil
	})
	return cols, err
}

const indexesQuery = `
	SELECT index_name, is_unique, sql
	FROM duckdb_indexes()
	WHERE schema_name = ? AND table_name = ?
	ORDER BY index_name`

// Indexes lists secondary indexes of a table. Key columns are read back
// from the index's CREATE statement.
func (a *Adapter) Indexes(ctx context.Context, table core.TableRef) ([]core.Index, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var indexes []core.Index
	err := a.QueryAll(ctx, indexesQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			idx  core.Index
			stmt sql.NullString
		)
		if err := rows.Scan(&idx.Name, &idx.Unique, &stmt); err != nil {
			return err
		}
		idx.Columns = indexColumns(stmt.String)
		indexes = append(indexes, idx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

// indexColumns extracts the key list of "CREATE INDEX ... ON t(a, b);".
func indexColumns(createSQL string) []string {
	open := strings.Index(createSQL, "(")
	end := strings.LastIndex(createSQL, ")")
	if open < 0 || end <= open {
		return nil
	}
	var cols []string
	for _, c := range adapter.SplitList(createSQL[open+1 : end]) {
		cols = append(cols, strings.Trim(c, `"`))
	}
	return cols
}

const constraintsQuery = `
	SELECT
		constraint_name,
		constraint_type,
		array_to_string(constraint_column_names, ','),
		COALESCE(expression, ''),
		COALESCE(referenced_table, ''),
		array_to_string(COALESCE(referenced_column_names, []), ',')
	FROM duckdb_constraints()
	WHERE schema_name = ? AND table_name = ?
		AND constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'CHECK', 'FOREIGN KEY')
	ORDER BY constraint_index`

// Constraints lists table constraints. DuckDB constraints are never deferrable.
func (a *Adapter) Constraints(ctx context.Context, table core.TableRef) ([]core.Constraint, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var constraints []core.Constraint
	err := a.QueryAll(ctx, constraintsQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			c                       core.Constraint
			typ, cols, refTbl, refs string
		)
		if err := rows.Scan(&c.Name, &typ, &cols, &c.Check, &refTbl, &refs); err != nil {
			return err
		}
		c.Type = core.ConstraintType(typ)
		c.RefTable = refTbl
		c.RefColumns = adapter.SplitList(refs)
		if c.Type != core.ConstraintCheck {
			c.Columns = adapter.SplitList(cols)
		}
		constraints = append(constraints, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return constraints, nil
}

// Rows reads up to limit rows. DuckDB rows carry no locator.
func (a *Adapter) Rows(ctx context.Context, table core.TableRef, limit int) ([]core.Row, error) {
	return a.SelectRows(ctx, adapter.ResolveTable(table, a.Dial), limit, "")
}

// RowIdentity addresses rows by primary key only.
func (a *Adapter) RowIdentity(ctx context.Context, table core.TableRef) (core.RowIdentity, error) {
	pk, err := a.primaryKey(ctx, adapter.ResolveTable(table, a.Dial))
	if err != nil {
		return core.RowIdentity{}, err
	}
	return core.RowIdentity{Columns: pk}, nil
}

// Objects lists tables and views of a schema.
func (a *Adapter) Objects(ctx context.Context, schema string) ([]core.Object, error) {
	if schema == "" {
		schema = a.Dial.DefaultSchema
	}
	return a.InformationSchemaObjects(ctx, schema)
}

// Variables lists the session settings.
func (a *Adapter) Variables(ctx context.Context) ([]core.Variable, error) {
	const query = `SELECT name, value FROM duckdb_settings() ORDER BY name`

	var vars []core.Variable
	err := a.QueryAll(ctx, query, nil, func(rows *sql.Rows) error {
		var (
			name  string
			value sql.NullString
		)
		if err := rows.Scan(&name, &value); err != nil {
			return err
		}
		v := core.Variable{Name: name, Value: core.Null()}
		if value.Valid {
			v.Value = core.Concrete(value.String)
		}
		vars = append(vars, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vars, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
