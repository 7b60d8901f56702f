// Package sqlite provides a SQLite database adapter for LeapEdit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	sqlitedialect "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite/dialect"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

// Pragmas surfaced as session variables. Write-only pragmas are excluded.
var sessionPragmas = []string{
	"automatic_index",
	"busy_timeout",
	"cache_size",
	"defer_foreign_keys",
	"foreign_keys",
	"ignore_check_constraints",
	"journal_mode",
	"recursive_triggers",
	"synchronous",
	"temp_store",
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dial: sqlitedialect.SQLite},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return sqlitedialect.SQLite
}

// Connect opens the database file, or an in-memory database when the path
// is empty. Options are applied as PRAGMA statements in name order.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	if err := a.Open(ctx, "sqlite", path); err != nil {
		return err
	}
	a.Cfg = cfg

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := a.Exec(ctx, fmt.Sprintf("PRAGMA %s = %s", k, cfg.Options[k])); err != nil {
			_ = a.Close()
			a.DB = nil
			return fmt.Errorf("failed to apply pragma %s: %w", k, err)
		}
	}
	return nil
}

const tableInfoQuery = `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?, ?) ORDER BY cid`

type tableColumn struct {
	core.Column
	pkOrder int
}

func (a *Adapter) tableInfo(ctx context.Context, table core.TableRef) ([]tableColumn, error) {
	var cols []tableColumn
	err := a.QueryAll(ctx, tableInfoQuery, []any{table.Name, table.Schema}, func(rows *sql.Rows) error {
		var (
			c       tableColumn
			cid     int
			notNull bool
			def     sql.NullString
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &def, &c.pkOrder); err != nil {
			return err
		}
		c.Position = cid + 1
		c.Nullable = !notNull
		c.PrimaryKey = c.pkOrder > 0
		if def.Valid {
			c.Default = &def.String
		}
		cols = append(cols, c)
		return nil
	})
	return cols, err
}

// Columns lists the columns of a table in ordinal order.
func (a *Adapter) Columns(ctx context.Context, table core.TableRef) ([]core.Column, error) {
	table = adapter.ResolveTable(table, a.Dial)

	info, err := a.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(info) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	columns := make([]core.Column, len(info))
	for i, c := range info {
		columns[i] = c.Column
	}
	return columns, nil
}

func (a *Adapter) primaryKey(ctx context.Context, table core.TableRef) ([]string, error) {
	info, err := a.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	var pk []tableColumn
	for _, c := range info {
		if c.pkOrder > 0 {
			pk = append(pk, c)
		}
	}
	sort.Slice(pk, func(i, j int) bool { return pk[i].pkOrder < pk[j].pkOrder })
	names := make([]string, len(pk))
	for i, c := range pk {
		names[i] = c.Name
	}
	return names, nil
}

type indexEntry struct {
	name   string
	unique bool
	origin string
}

const indexListQuery = `SELECT name, "unique", origin FROM pragma_index_list(?, ?) ORDER BY name`

func (a *Adapter) indexList(ctx context.Context, table core.TableRef) ([]indexEntry, error) {
	var entries []indexEntry
	err := a.QueryAll(ctx, indexListQuery, []any{table.Name, table.Schema}, func(rows *sql.Rows) error {
		var e indexEntry
		if err := rows.Scan(&e.name, &e.unique, &e.origin); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

const indexInfoQuery = `SELECT name FROM pragma_index_info(?, ?) ORDER BY seqno`

func (a *Adapter) indexColumns(ctx context.Context, index, schema string) ([]string, error) {
	var cols []string
	err := a.QueryAll(ctx, indexInfoQuery, []any{index, schema}, func(rows *sql.Rows) error {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
		return nil
	})
	return cols, err
}

// Indexes lists indexes created with CREATE INDEX. Indexes that back a
// UNIQUE or PRIMARY KEY constraint are reported as constraints.
func (a *Adapter) Indexes(ctx context.Context, table core.TableRef) ([]core.Index, error) {
	table = adapter.ResolveTable(table, a.Dial)

	entries, err := a.indexList(ctx, table)
	if err != nil {
		return nil, err
	}
	var indexes []core.Index
	for _, e := range entries {
		if e.origin != "c" {
			continue
		}
		cols, err := a.indexColumns(ctx, e.name, table.Schema)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, core.Index{Name: e.name, Unique: e.unique, Columns: cols})
	}
	return indexes, nil
}

const foreignKeysQuery = `SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?, ?) ORDER BY id, seq`

// Constraints lists the primary key, unique and foreign key constraints.
// SQLite does not name them, so names are derived from the table.
// CHECK constraints live only in the table's DDL and are not listed.
func (a *Adapter) Constraints(ctx context.Context, table core.TableRef) ([]core.Constraint, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var constraints []core.Constraint

	pk, err := a.primaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(pk) > 0 {
		constraints = append(constraints, core.Constraint{
			Name:    table.Name + "_pkey",
			Type:    core.ConstraintPrimaryKey,
			Columns: pk,
		})
	}

	entries, err := a.indexList(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.origin != "u" {
			continue
		}
		cols, err := a.indexColumns(ctx, e.name, table.Schema)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, core.Constraint{Name: e.name, Type: core.ConstraintUnique, Columns: cols})
	}

	byID := make(map[int]*core.Constraint)
	var order []int
	err = a.QueryAll(ctx, foreignKeysQuery, []any{table.Name, table.Schema}, func(rows *sql.Rows) error {
		var (
			id        int
			ref, from string
			to        sql.NullString
		)
		if err := rows.Scan(&id, &ref, &from, &to); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &core.Constraint{
				Name:     table.Name + "_fk_" + strconv.Itoa(id),
				Type:     core.ConstraintForeignKey,
				RefTable: ref,
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		if to.Valid {
			fk.RefColumns = append(fk.RefColumns, to.String)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		constraints = append(constraints, *byID[id])
	}
	return constraints, nil
}

// Rows reads up to limit rows, each tagged with its rowid.
func (a *Adapter) Rows(ctx context.Context, table core.TableRef, limit int) ([]core.Row, error) {
	return a.SelectRows(ctx, adapter.ResolveTable(table, a.Dial), limit, a.Dial.RowLocator)
}

// RowIdentity addresses rows by rowid, with the primary key as fallback.
func (a *Adapter) RowIdentity(ctx context.Context, table core.TableRef) (core.RowIdentity, error) {
	pk, err := a.primaryKey(ctx, adapter.ResolveTable(table, a.Dial))
	if err != nil {
		return core.RowIdentity{}, err
	}
	return core.RowIdentity{Locator: a.Dial.RowLocator, Columns: pk}, nil
}

// Objects lists tables and views of an attached schema.
func (a *Adapter) Objects(ctx context.Context, schema string) ([]core.Object, error) {
	if schema == "" {
		schema = a.Dial.DefaultSchema
	}
	query := fmt.Sprintf(`SELECT name, type FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, a.Dial.QuoteIdentifierIfNeeded(schema))

	var objects []core.Object
	err := a.QueryAll(ctx, query, nil, func(rows *sql.Rows) error {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return err
		}
		o := core.Object{Name: name, Type: core.ObjectTable}
		if typ == "view" {
			o.Type = core.ObjectView
		}
		objects = append(objects, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// Variables reads the session pragmas.
func (a *Adapter) Variables(ctx context.Context) ([]core.Variable, error) {
	vars := make([]core.Variable, 0, len(sessionPragmas))
	for _, name := range sessionPragmas {
		v := core.Variable{Name: name, Value: core.Null()}
		err := a.QueryAll(ctx, "PRAGMA "+name, nil, func(rows *sql.Rows) error {
			var value sql.NullString
			if err := rows.Scan(&value); err != nil {
				return err
			}
			if value.Valid {
				v.Value = core.Concrete(value.String)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
