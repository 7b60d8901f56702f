package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

var errNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and ExecScript implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
	// Dial supplies the script delimiter and transaction statements.
	Dial *dialect.Dialect
}

// Open opens the pool and pins it to one connection: the editors share a
// single session.
func (b *BaseSQLAdapter) Open(ctx context.Context, driver, dsn string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	b.DB = db
	return nil
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return errNotConnected
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ExecScript splits script on the session delimiter and runs the statements
// in order on one connection. The first failure stops the batch and is
// returned as *core.ExecError.
//
// In manual commit mode a script that ends with the dialect's COMMIT is
// wrapped: the transaction is opened first and rolled back if any
// statement fails.
func (b *BaseSQLAdapter) ExecScript(ctx context.Context, script string) error {
	if b.DB == nil {
		return errNotConnected
	}
	stmts := SplitScript(script, b.delimiter())
	if len(stmts) == 0 {
		return nil
	}

	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}
	defer func() { _ = conn.Close() }()

	explicit := b.Cfg.ManualCommit && b.Dial != nil &&
		strings.EqualFold(stmts[len(stmts)-1], b.Dial.Commit)
	if explicit {
		if _, err := conn.ExecContext(ctx, b.Dial.Begin); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
	}

	logger := b.logger()
	for i, stmt := range stmts {
		logger.Debug("executing statement", slog.Int("index", i), slog.String("sql", stmt))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if explicit {
				if _, rerr := conn.ExecContext(context.WithoutCancel(ctx), b.Dial.Rollback); rerr != nil {
					logger.Warn("rollback failed", slog.String("error", rerr.Error()))
				}
			}
			return &core.ExecError{Index: i, Statement: stmt, Cause: err}
		}
	}
	return nil
}

func (b *BaseSQLAdapter) delimiter() string {
	if b.Cfg.Delimiter != "" {
		return b.Cfg.Delimiter
	}
	if b.Dial != nil {
		return b.Dial.Delimiter
	}
	return ";"
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// QueryAll runs a catalog query and hands every row to scan. Rows are fully
// read and closed before QueryAll returns, so catalog reads never hold the
// session open.
func (b *BaseSQLAdapter) QueryAll(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	if b.DB == nil {
		return errNotConnected
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan catalog row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return nil
}

// ResolveTable fills in the default schema.
func ResolveTable(t core.TableRef, d *dialect.Dialect) core.TableRef {
	if t.Schema == "" {
		t.Schema = d.DefaultSchema
	}
	return t
}

// ScanRows reads an arbitrary result set into rows. Values are converted to
// cell values: NULL stays NULL, []byte becomes a hex large object unless it
// is valid text, anything else is rendered as text. A column named locator
// is moved into Row.Locator.
func ScanRows(rows *sql.Rows, locator string) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	var out []core.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := core.NewRow(make(map[string]core.CellValue, len(cols)))
		for i, col := range cols {
			if locator != "" && col == locator {
				row.Locator = fmt.Sprint(vals[i])
				continue
			}
			row.Set(col, cellFromDriver(vals[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// LocatorAlias is the result column SelectRows uses for the row locator.
const LocatorAlias = "__locator"

// SelectRows reads up to limit rows of a table. When locatorExpr is set it
// is selected as LocatorAlias and surfaces as Row.Locator.
func (b *BaseSQLAdapter) SelectRows(ctx context.Context, table core.TableRef, limit int, locatorExpr string) ([]core.Row, error) {
	if b.DB == nil {
		return nil, errNotConnected
	}
	query := "SELECT * FROM " + b.Dial.QualifiedName(table)
	locator := ""
	if locatorExpr != "" {
		query = fmt.Sprintf("SELECT %s AS %s, * FROM %s", locatorExpr, LocatorAlias, b.Dial.QualifiedName(table))
		locator = LocatorAlias
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()
	return ScanRows(rows, locator)
}

// InformationSchemaObjects lists the tables and views of a schema from
// information_schema.tables.
func (b *BaseSQLAdapter) InformationSchemaObjects(ctx context.Context, schema string) ([]core.Object, error) {
	query := fmt.Sprintf(`SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = %s
		ORDER BY table_name`, b.Dial.FormatPlaceholder(1))

	var objects []core.Object
	err := b.QueryAll(ctx, query, []any{schema}, func(rows *sql.Rows) error {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return err
		}
		o := core.Object{Name: name, Type: core.ObjectTable}
		if strings.EqualFold(typ, "VIEW") {
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

// SplitList splits a comma-joined catalog list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
