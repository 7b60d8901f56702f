// Package postgres provides a PostgreSQL database adapter for LeapEdit.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapedit/pkg/adapter"
	pgdialect "github.com/leapstack-labs/leapedit/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Dial: pgdialect.Postgres},
	}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return pgdialect.Postgres
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	if err := a.Open(ctx, "pgx", buildPostgresDSN(cfg)); err != nil {
		return err
	}
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
// Options are appended as extra keys in name order.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	opts := map[string]string{"sslmode": "disable"}
	for k, v := range cfg.Options {
		opts[k] = v
	}

	parts := []string{
		"host=" + dsnValue(host),
		fmt.Sprintf("port=%d", port),
		"dbname=" + dsnValue(cfg.Database),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+dsnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+dsnValue(opts[k]))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a value that libpq would otherwise split.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

const columnsQuery = `
	SELECT
		a.attname,
		format_type(a.atttypid, a.atttypmod),
		NOT a.attnotnull,
		pg_get_expr(d.adbin, d.adrelid),
		col_description(a.attrelid, a.attnum),
		EXISTS (
			SELECT 1 FROM pg_index i
			WHERE i.indrelid = a.attrelid AND i.indisprimary AND a.attnum = ANY(i.indkey)
		),
		a.attnum
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum`

// Columns lists the columns of a table in ordinal order.
func (a *Adapter) Columns(ctx context.Context, table core.TableRef) ([]core.Column, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var columns []core.Column
	err := a.QueryAll(ctx, columnsQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			col     core.Column
			def     sql.NullString
			comment sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &def, &comment, &col.PrimaryKey, &col.Position); err != nil {
			return err
		}
		if def.Valid {
			col.Default = &def.String
		}
		col.Comment = comment.String
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

// Indexes skip indexes that back a constraint; those are edited as constraints.
const indexesQuery = `
	SELECT
		ic.relname,
		i.indisunique,
		am.amname,
		array_to_string(ARRAY(
			SELECT pg_get_indexdef(i.indexrelid, k, true)
			FROM generate_series(1, i.indnkeyatts) AS k
			ORDER BY k
		), ',')
	FROM pg_index i
	JOIN pg_class ic ON ic.oid = i.indexrelid
	JOIN pg_class c ON c.oid = i.indrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_am am ON am.oid = ic.relam
	WHERE n.nspname = $1 AND c.relname = $2
		AND NOT EXISTS (SELECT 1 FROM pg_constraint con WHERE con.conindid = i.indexrelid)
	ORDER BY ic.relname`

// Indexes lists secondary indexes of a table.
func (a *Adapter) Indexes(ctx context.Context, table core.TableRef) ([]core.Index, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var indexes []core.Index
	err := a.QueryAll(ctx, indexesQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			idx  core.Index
			cols string
		)
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Method, &cols); err != nil {
			return err
		}
		if idx.Method == "btree" {
			idx.Method = ""
		}
		idx.Columns = adapter.SplitList(cols)
		indexes = append(indexes, idx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

const constraintsQuery = `
	SELECT
		con.conname,
		con.contype::text,
		array_to_string(ARRAY(
			SELECT att.attname
			FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
			ORDER BY k.ord
		), ','),
		COALESCE(pg_get_expr(con.conbin, con.conrelid), ''),
		COALESCE(CASE WHEN fn.nspname = n.nspname THEN fc.relname ELSE fn.nspname || '.' || fc.relname END, ''),
		array_to_string(ARRAY(
			SELECT att.attname
			FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
			JOIN pg_attribute att ON att.attrelid = con.confrelid AND att.attnum = k.attnum
			ORDER BY k.ord
		), ','),
		con.condeferrable,
		con.condeferred
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_class fc ON fc.oid = con.confrelid
	LEFT JOIN pg_namespace fn ON fn.oid = fc.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2 AND con.contype IN ('p', 'u', 'c', 'f')
	ORDER BY con.conname`

var constraintTypes = map[string]core.ConstraintType{
	"p": core.ConstraintPrimaryKey,
	"u": core.ConstraintUnique,
	"c": core.ConstraintCheck,
	"f": core.ConstraintForeignKey,
}

// Constraints lists table constraints.
func (a *Adapter) Constraints(ctx context.Context, table core.TableRef) ([]core.Constraint, error) {
	table = adapter.ResolveTable(table, a.Dial)

	var constraints []core.Constraint
	err := a.QueryAll(ctx, constraintsQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var (
			c                 core.Constraint
			typ, cols, refCol string
		)
		if err := rows.Scan(&c.Name, &typ, &cols, &c.Check, &c.RefTable, &refCol, &c.Deferrable, &c.InitiallyDeferred); err != nil {
			return err
		}
		c.Type = constraintTypes[typ]
		c.Columns = adapter.SplitList(cols)
		c.RefColumns = adapter.SplitList(refCol)
		if c.Type == core.ConstraintCheck {
			c.Columns = nil
		}
		constraints = append(constraints, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return constraints, nil
}

// Rows reads up to limit rows, each tagged with its ctid.
func (a *Adapter) Rows(ctx context.Context, table core.TableRef, limit int) ([]core.Row, error) {
	return a.SelectRows(ctx, adapter.ResolveTable(table, a.Dial), limit, a.Dial.RowLocator+"::text")
}

const primaryKeyQuery = `
	SELECT att.attname
	FROM pg_index i
	JOIN pg_class c ON c.oid = i.indrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_attribute att ON att.attrelid = i.indrelid AND att.attnum = ANY(i.indkey)
	WHERE n.nspname = $1 AND c.relname = $2 AND i.indisprimary
	ORDER BY array_position(i.indkey::int2[], att.attnum)`

// RowIdentity addresses rows by ctid, with the primary key as fallback.
func (a *Adapter) RowIdentity(ctx context.Context, table core.TableRef) (core.RowIdentity, error) {
	table = adapter.ResolveTable(table, a.Dial)

	id := core.RowIdentity{Locator: a.Dial.RowLocator}
	err := a.QueryAll(ctx, primaryKeyQuery, []any{table.Schema, table.Name}, func(rows *sql.Rows) error {
		var col string
		if err := rows.Scan(&col); err != nil {
			return err
		}
		id.Columns = append(id.Columns, col)
		return nil
	})
	if err != nil {
		return core.RowIdentity{}, err
	}
	return id, nil
}

// Objects lists tables and views of a schema.
func (a *Adapter) Objects(ctx context.Context, schema string) ([]core.Object, error) {
	if schema == "" {
		schema = a.Dial.DefaultSchema
	}
	return a.InformationSchemaObjects(ctx, schema)
}

// Variables lists the settings a session may change with SET.
func (a *Adapter) Variables(ctx context.Context) ([]core.Variable, error) {
	const query = `SELECT name, setting FROM pg_settings WHERE context = 'user' ORDER BY name`

	var vars []core.Variable
	err := a.QueryAll(ctx, query, nil, func(rows *sql.Rows) error {
		var (
			name    string
			setting sql.NullString
		)
		if err := rows.Scan(&name, &setting); err != nil {
			return err
		}
		v := core.Variable{Name: name, Value: core.Null()}
		if setting.Valid {
			v.Value = core.Concrete(setting.String)
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
