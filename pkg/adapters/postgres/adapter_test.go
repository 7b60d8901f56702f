package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapedit/pkg/adapter"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb user=user password=pass sslmode=disable",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require", "application_name": "leapedit"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb user=admin application_name=leapedit sslmode=require",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "mydb"},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "password with spaces and quotes",
			config: adapter.Config{
				Database: "mydb",
				Password: "it's secret",
			},
			expected: `host=localhost port=5432 dbname=mydb password='it\'s secret' sslmode=disable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adp := New(nil)
	adp.DB = db
	return adp, mock
}

func TestAdapter_Columns(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(columnsQuery).
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "type", "nullable", "default", "comment", "pk", "attnum"}).
			AddRow("id", "integer", false, "nextval('users_id_seq'::regclass)", nil, true, 1).
			AddRow("email", "character varying(255)", true, nil, "login", false, 2))

	cols, err := adp.Columns(context.Background(), core.TableRef{Name: "users"})
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.False(t, cols[0].Nullable)
	require.NotNil(t, cols[0].Default)
	assert.Equal(t, "nextval('users_id_seq'::regclass)", *cols[0].Default)

	assert.Equal(t, "character varying(255)", cols[1].Type)
	assert.Nil(t, cols[1].Default)
	assert.Equal(t, "login", cols[1].Comment)
	assert.Equal(t, 2, cols[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Columns_TableNotFound(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(columnsQuery).
		WithArgs("sales", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "type", "nullable", "default", "comment", "pk", "attnum"}))

	_, err := adp.Columns(context.Background(), core.TableRef{Schema: "sales", Name: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales.missing not found")
}

func TestAdapter_Indexes(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(indexesQuery).
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows([]string{"relname", "unique", "amname", "cols"}).
			AddRow("users_email_idx", true, "btree", "email").
			AddRow("users_tags_gin", false, "gin", "tags,lower(name)"))

	idx, err := adp.Indexes(context.Background(), core.TableRef{Name: "users"})
	require.NoError(t, err)
	assert.Equal(t, []core.Index{
		{Name: "users_email_idx", Unique: true, Columns: []string{"email"}},
		{Name: "users_tags_gin", Method: "gin", Columns: []string{"tags", "lower(name)"}},
	}, idx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Constraints(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(constraintsQuery).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"conname", "contype", "cols", "check", "ref_table", "ref_cols", "deferrable", "deferred"}).
			AddRow("orders_pkey", "p", "id", "", "", "", false, false).
			AddRow("orders_qty_check", "c", "qty", "(qty > 0)", "", "", false, false).
			AddRow("orders_user_fk", "f", "user_id", "", "auth.users", "id", true, true))

	cons, err := adp.Constraints(context.Background(), core.TableRef{Name: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []core.Constraint{
		{Name: "orders_pkey", Type: core.ConstraintPrimaryKey, Columns: []string{"id"}},
		{Name: "orders_qty_check", Type: core.ConstraintCheck, Check: "(qty > 0)"},
		{
			Name:              "orders_user_fk",
			Type:              core.ConstraintForeignKey,
			Columns:           []string{"user_id"},
			RefTable:          "auth.users",
			RefColumns:        []string{"id"},
			Deferrable:        true,
			InitiallyDeferred: true,
		},
	}, cons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Rows(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		query string
	}{
		{"limited", 50, `SELECT ctid::text AS __locator, * FROM public.users LIMIT 50`},
		{"all rows", 0, `SELECT ctid::text AS __locator, * FROM public.users`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp, mock := newMockAdapter(t)
			mock.ExpectQuery(tt.query).
				WillReturnRows(sqlmock.NewRows([]string{"__locator", "id", "email"}).
					AddRow("(0,1)", int64(1), "a@example.com"))

			rows, err := adp.Rows(context.Background(), core.TableRef{Name: "users"}, tt.limit)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "(0,1)", rows[0].Locator)
			assert.Equal(t, core.Concrete("a@example.com"), rows[0].Cell("email"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_RowIdentity(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(primaryKeyQuery).
		WithArgs("public", "order_lines").
		WillReturnRows(sqlmock.NewRows([]string{"attname"}).AddRow("order_id").AddRow("line_no"))

	id, err := adp.RowIdentity(context.Background(), core.TableRef{Name: "order_lines"})
	require.NoError(t, err)
	assert.Equal(t, core.RowIdentity{Locator: "ctid", Columns: []string{"order_id", "line_no"}}, id)
}

func TestAdapter_Objects(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(`SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_type"}).
			AddRow("active_users", "VIEW").
			AddRow("users", "BASE TABLE"))

	objs, err := adp.Objects(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []core.Object{
		{Name: "active_users", Type: core.ObjectView},
		{Name: "users", Type: core.ObjectTable},
	}, objs)
}

func TestAdapter_Variables(t *testing.T) {
	adp, mock := newMockAdapter(t)
	mock.ExpectQuery(`SELECT name, setting FROM pg_settings WHERE context = 'user' ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "setting"}).
			AddRow("search_path", `"$user", public`).
			AddRow("work_mem", "4096"))

	vars, err := adp.Variables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Variable{
		{Name: "search_path", Value: core.Concrete(`"$user", public`)},
		{Name: "work_mem", Value: core.Concrete("4096")},
	}, vars)
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	ctx := context.Background()

	_, err := adp.Columns(ctx, core.TableRef{Name: "users"})
	assert.Error(t, err)
	_, err = adp.Rows(ctx, core.TableRef{Name: "users"}, 10)
	assert.Error(t, err)
	assert.Error(t, adp.ExecScript(ctx, "SELECT 1;"))
}
