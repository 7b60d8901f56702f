package stmt

import (
	"errors"
	"testing"

	duckdbdialect "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb/dialect"
	pgdialect "github.com/leapstack-labs/leapedit/pkg/adapters/postgres/dialect"
	sqlitedialect "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite/dialect"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
	"github.com/leapstack-labs/leapedit/pkg/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var users = core.TableRef{Schema: "public", Name: "users"}

func strPtr(s string) *string { return &s }

type buildCase struct {
	name    string
	dialect *dialect.Dialect
	req     synth.Request
	want    []string
	tip     string
	wantErr error
}

func runBuildCases(t *testing.T, tests []buildCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(tt.dialect).Build(tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.SQL)
			if tt.tip != "" {
				assert.Equal(t, tt.tip, st.Tip)
			}
		})
	}
}

func TestBuild_Columns(t *testing.T) {
	email := core.Column{Name: "email", Type: "text", Nullable: true}
	runBuildCases(t, []buildCase{
		{
			name:    "add column",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionCreate, Scope: users,
				New: core.Column{Name: "age", Type: "INT", Default: strPtr("0")}},
			want: []string{`ALTER TABLE public.users ADD COLUMN age INT NOT NULL DEFAULT 0`},
		},
		{
			name:    "add column with comment",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionCreate, Scope: users,
				New: core.Column{Name: "Nick", Type: "text", Nullable: true, Comment: "it's short"}},
			want: []string{
				`ALTER TABLE public.users ADD COLUMN "Nick" text`,
				`COMMENT ON COLUMN public.users."Nick" IS 'it''s short'`,
			},
		},
		{
			name:    "drop column carries postgres tip",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindColumn, Action: synth.ActionDelete, Scope: users, Old: email},
			want:    []string{`ALTER TABLE public.users DROP COLUMN email`},
			tip:     tipPostgresDropColumn,
		},
		{
			name:    "nullability change",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: users,
				Old: email, New: core.Column{Name: "email", Type: "text"}},
			want: []string{`ALTER TABLE public.users ALTER COLUMN email SET NOT NULL`},
		},
		{
			name:    "rename then retype addresses new name",
			dialect: duckdbdialect.DuckDB,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: core.TableRef{Name: "users"},
				Old: email, New: core.Column{Name: "mail", Type: "VARCHAR", Nullable: true, Default: strPtr("''")}},
			want: []string{
				`ALTER TABLE users RENAME COLUMN email TO mail`,
				`ALTER TABLE users ALTER COLUMN mail SET DATA TYPE VARCHAR`,
				`ALTER TABLE users ALTER COLUMN mail SET DEFAULT ''`,
			},
			tip: tipDuckDBAlterColumn,
		},
		{
			name:    "drop default",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: users,
				Old: core.Column{Name: "n", Type: "int", Default: strPtr("1")}, New: core.Column{Name: "n", Type: "int"}},
			want: []string{`ALTER TABLE public.users ALTER COLUMN n DROP DEFAULT`},
		},
		{
			name:    "sqlite cannot retype",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: core.TableRef{Name: "users"},
				Old: email, New: core.Column{Name: "email", Type: "blob", Nullable: true}},
			wantErr: ErrUnsupported,
		},
		{
			name:    "sqlite rename",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: core.TableRef{Name: "users"},
				Old: email, New: core.Column{Name: "mail", Type: "text", Nullable: true}},
			want: []string{`ALTER TABLE users RENAME COLUMN email TO mail`},
		},
		{
			name:    "primary key toggle",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindColumn, Action: synth.ActionAlter, Scope: users,
				Old: email, New: core.Column{Name: "email", Type: "text", Nullable: true, PrimaryKey: true}},
			wantErr: ErrUnsupported,
		},
	})
}

func TestBuild_Indexes(t *testing.T) {
	ix := core.Index{Name: "ix_users_email", Columns: []string{"email"}}
	runBuildCases(t, []buildCase{
		{
			name:    "create unique with method",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindIndex, Action: synth.ActionCreate, Scope: users,
				New: core.Index{Name: "ux_users", Unique: true, Method: "btree", Columns: []string{"email", "order"}}},
			want: []string{`CREATE UNIQUE INDEX ux_users ON public.users USING btree (email, "order")`},
		},
		{
			name:    "drop is schema qualified on postgres",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindIndex, Action: synth.ActionDelete, Scope: users, Old: ix},
			want:    []string{`DROP INDEX public.ix_users_email`},
		},
		{
			name:    "drop is bare on duckdb",
			dialect: duckdbdialect.DuckDB,
			req:     synth.Request{Kind: core.KindIndex, Action: synth.ActionDelete, Scope: core.TableRef{Schema: "main", Name: "users"}, Old: ix},
			want:    []string{`DROP INDEX ix_users_email`},
		},
		{
			name:    "replace is drop then create",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindIndex, Action: synth.ActionAlter, Scope: core.TableRef{Name: "users"},
				Old: ix, New: core.Index{Name: "ix_users_email", Columns: []string{"email", "id"}}},
			want: []string{`DROP INDEX ix_users_email`, `CREATE INDEX ix_users_email ON users (email, id)`},
			tip:  tipReplaceIndex,
		},
		{
			name:    "postgres rename only",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindIndex, Action: synth.ActionAlter, Scope: users,
				Old: ix, New: core.Index{Name: "ix_mail", Columns: []string{"email"}}},
			want: []string{`ALTER INDEX public.ix_users_email RENAME TO ix_mail`},
		},
		{
			name:    "method unsupported",
			dialect: duckdbdialect.DuckDB,
			req: synth.Request{Kind: core.KindIndex, Action: synth.ActionCreate, Scope: core.TableRef{Name: "users"},
				New: core.Index{Name: "ix", Method: "art", Columns: []string{"a"}}},
			wantErr: ErrUnsupported,
		},
	})
}

func TestBuild_Constraints(t *testing.T) {
	fk := core.Constraint{
		Name:       "fk_org",
		Type:       core.ConstraintForeignKey,
		Columns:    []string{"org_id"},
		RefTable:   "public.orgs",
		RefColumns: []string{"id"},
	}
	deferredFK := fk
	deferredFK.Deferrable = true
	deferredFK.InitiallyDeferred = true

	runBuildCases(t, []buildCase{
		{
			name:    "add foreign key",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindConstraint, Action: synth.ActionCreate, Scope: users, New: fk},
			want:    []string{`ALTER TABLE public.users ADD CONSTRAINT fk_org FOREIGN KEY (org_id) REFERENCES public.orgs (id)`},
		},
		{
			name:    "add deferrable foreign key",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindConstraint, Action: synth.ActionCreate, Scope: users, New: deferredFK},
			want: []string{`ALTER TABLE public.users ADD CONSTRAINT fk_org FOREIGN KEY (org_id) REFERENCES public.orgs (id) ` +
				`DEFERRABLE INITIALLY DEFERRED`},
		},
		{
			name:    "add check",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindConstraint, Action: synth.ActionCreate, Scope: users,
				New: core.Constraint{Name: "ck_age", Type: core.ConstraintCheck, Check: "age >= 0"}},
			want: []string{`ALTER TABLE public.users ADD CONSTRAINT ck_age CHECK (age >= 0)`},
		},
		{
			name:    "deferral change alters in place",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindConstraint, Action: synth.ActionAlter, Scope: users, Old: deferredFK, New: fk},
			want:    []string{`ALTER TABLE public.users ALTER CONSTRAINT fk_org NOT DEFERRABLE`},
		},
		{
			name:    "rename",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindConstraint, Action: synth.ActionAlter, Scope: users,
				Old: fk, New: core.Constraint{Name: "fk_orgs", Type: fk.Type, Columns: fk.Columns, RefTable: fk.RefTable, RefColumns: fk.RefColumns}},
			want: []string{`ALTER TABLE public.users RENAME CONSTRAINT fk_org TO fk_orgs`},
		},
		{
			name:    "replace is drop then add",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindConstraint, Action: synth.ActionAlter, Scope: users,
				Old: core.Constraint{Name: "uq", Type: core.ConstraintUnique, Columns: []string{"a"}},
				New: core.Constraint{Name: "uq", Type: core.ConstraintUnique, Columns: []string{"a", "b"}}},
			want: []string{
				`ALTER TABLE public.users DROP CONSTRAINT uq`,
				`ALTER TABLE public.users ADD CONSTRAINT uq UNIQUE (a, b)`,
			},
			tip: tipReplaceConstraint,
		},
		{
			name:    "sqlite cannot add constraints",
			dialect: sqlitedialect.SQLite,
			req:     synth.Request{Kind: core.KindConstraint, Action: synth.ActionCreate, Scope: core.TableRef{Name: "users"}, New: fk},
			wantErr: ErrUnsupported,
		},
		{
			name:    "duckdb cannot drop constraints",
			dialect: duckdbdialect.DuckDB,
			req:     synth.Request{Kind: core.KindConstraint, Action: synth.ActionDelete, Scope: core.TableRef{Name: "users"}, Old: fk},
			wantErr: ErrUnsupported,
		},
	})
}

func TestBuild_Rows(t *testing.T) {
	notes := core.TableRef{Name: "notes"}
	byID := []core.IdentityValue{{Column: "id", Value: core.Concrete("1")}}

	runBuildCases(t, []buildCase{
		{
			name:    "insert",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionCreate, Scope: notes, Cells: []synth.Cell{
				{Column: "id", Value: core.Concrete("2")},
				{Column: "note", Value: core.Null()},
				{Column: "data", Value: core.HexLob([]byte{0xca, 0xfe})},
			}},
			want: []string{`INSERT INTO notes (id, note, data) VALUES ('2', NULL, X'CAFE')`},
		},
		{
			name:    "update to default is not null",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionAlter, Scope: notes, Identity: byID,
				Cells: []synth.Cell{{Column: "note", Value: core.Default()}}},
			want: []string{`UPDATE notes SET note = DEFAULT WHERE id = '1'`},
		},
		{
			name:    "update to null",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionAlter, Scope: notes, Identity: byID,
				Cells: []synth.Cell{{Column: "note", Value: core.Null()}}},
			want: []string{`UPDATE notes SET note = NULL WHERE id = '1'`},
		},
		{
			name:    "sqlite rejects default in update",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionAlter, Scope: notes, Identity: byID,
				Cells: []synth.Cell{{Column: "note", Value: core.Default()}}},
			wantErr: ErrUnsupported,
		},
		{
			name:    "resolved default expression",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionAlter, Scope: notes, Identity: byID,
				Cells: []synth.Cell{{Column: "note", Value: core.Default(), Expr: "'n/a'"}}},
			want: []string{`UPDATE notes SET note = 'n/a' WHERE id = '1'`},
		},
		{
			name:    "delete by ctid",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionDelete, Scope: notes,
				Identity: []core.IdentityValue{{Column: "ctid", Value: core.Concrete("(0,3)")}}},
			want: []string{`DELETE FROM notes WHERE ctid = '(0,3)'`},
		},
		{
			name:    "delete by rowid",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionDelete, Scope: notes,
				Identity: []core.IdentityValue{{Column: "rowid", Value: core.Concrete("17")}}},
			want: []string{`DELETE FROM notes WHERE rowid = 17`},
		},
		{
			name:    "composite key",
			dialect: duckdbdialect.DuckDB,
			req: synth.Request{Kind: core.KindRow, Action: synth.ActionDelete, Scope: notes,
				Identity: []core.IdentityValue{
					{Column: "tenant", Value: core.Concrete("a")},
					{Column: "id", Value: core.Concrete("1")},
				}},
			want: []string{`DELETE FROM notes WHERE tenant = 'a' AND id = '1'`},
		},
		{
			name:    "no identity",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindRow, Action: synth.ActionDelete, Scope: notes},
			wantErr: synth.ErrUnidentifiableRow,
		},
	})
}

func TestBuild_LobOrigins(t *testing.T) {
	notes := core.TableRef{Name: "notes"}
	insert := func(v core.CellValue) synth.Request {
		return synth.Request{Kind: core.KindRow, Action: synth.ActionCreate, Scope: notes,
			Cells: []synth.Cell{{Column: "body", Value: v}}}
	}

	tests := []struct {
		name    string
		dialect *dialect.Dialect
		value   core.CellValue
		want    string
	}{
		{"inline text is quoted verbatim", pgdialect.Postgres, core.Lob(core.LobInlineText, "it's long"), `'it''s long'`},
		{"hex on postgres", pgdialect.Postgres, core.HexLob([]byte{0xde, 0xad}), `'\xdead'::bytea`},
		{"hex on duckdb", duckdbdialect.DuckDB, core.HexLob([]byte{0xde, 0xad}), `'\xDE\xAD'::BLOB`},
		{"upload on postgres", pgdialect.Postgres, core.Lob(core.LobUpload, "/srv/up/1"), `pg_read_binary_file('/srv/up/1')`},
		{"upload on duckdb", duckdbdialect.DuckDB, core.Lob(core.LobUpload, "f.bin"), `(SELECT content FROM read_blob('f.bin'))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := New(tt.dialect).Build(insert(tt.value))
			require.NoError(t, err)
			assert.Equal(t, []string{"INSERT INTO notes (body) VALUES (" + tt.want + ")"}, st.SQL)
		})
	}

	t.Run("preview is never used", func(t *testing.T) {
		v := core.Lob(core.LobInlineText, "0123456789012345678901234567890123456789")
		ref, _ := v.LobRef()
		require.NotEqual(t, ref.Payload, ref.Preview)

		st, err := New(pgdialect.Postgres).Build(insert(v))
		require.NoError(t, err)
		assert.Contains(t, st.SQL[0], ref.Payload)
	})

	t.Run("custom upload resolver", func(t *testing.T) {
		resolver := func(token string) (string, error) {
			if token == "bad" {
				return "", errors.New("token expired")
			}
			return "lo_get(" + token + ")", nil
		}
		b := New(pgdialect.Postgres, WithUploadResolver(resolver))

		st, err := b.Build(insert(core.Lob(core.LobUpload, "42")))
		require.NoError(t, err)
		assert.Equal(t, []string{"INSERT INTO notes (body) VALUES (lo_get(42))"}, st.SQL)

		_, err = b.Build(insert(core.Lob(core.LobUpload, "bad")))
		assert.ErrorContains(t, err, "token expired")
	})
}

func TestBuild_Objects(t *testing.T) {
	table := core.Object{Name: "users", Type: core.ObjectTable}
	view := core.Object{Name: "active_users", Type: core.ObjectView}
	scope := core.TableRef{Schema: "public"}

	runBuildCases(t, []buildCase{
		{
			name:    "rename table",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindObject, Action: synth.ActionAlter, Scope: scope,
				Old: table, New: core.Object{Name: "members", Type: core.ObjectTable}},
			want: []string{`ALTER TABLE public.users RENAME TO members`},
		},
		{
			name:    "drop view",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindObject, Action: synth.ActionDelete, Scope: scope, Old: view},
			want:    []string{`DROP VIEW public.active_users`},
		},
		{
			name:    "sqlite cannot rename views",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindObject, Action: synth.ActionAlter, Scope: core.TableRef{},
				Old: view, New: core.Object{Name: "v2", Type: core.ObjectView}},
			wantErr: ErrUnsupported,
		},
		{
			name:    "create is not supported",
			dialect: pgdialect.Postgres,
			req:     synth.Request{Kind: core.KindObject, Action: synth.ActionCreate, Scope: scope, New: table},
			wantErr: ErrUnsupported,
		},
	})
}

func TestBuild_Variables(t *testing.T) {
	runBuildCases(t, []buildCase{
		{
			name:    "set string",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindVariable, Action: synth.ActionAlter,
				Old: core.Variable{Name: "work_mem", Value: core.Concrete("4MB")},
				New: core.Variable{Name: "work_mem", Value: core.Concrete("64MB")}},
			want: []string{`SET work_mem = '64MB'`},
		},
		{
			name:    "set number",
			dialect: duckdbdialect.DuckDB,
			req: synth.Request{Kind: core.KindVariable, Action: synth.ActionCreate,
				New: core.Variable{Name: "threads", Value: core.Concrete("4")}},
			want: []string{`SET threads = 4`},
		},
		{
			name:    "reset",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindVariable, Action: synth.ActionDelete,
				Old: core.Variable{Name: "app.tenant", Value: core.Concrete("a")}},
			want: []string{`RESET app.tenant`},
		},
		{
			name:    "pragma",
			dialect: sqlitedialect.SQLite,
			req: synth.Request{Kind: core.KindVariable, Action: synth.ActionAlter,
				Old: core.Variable{Name: "foreign_keys", Value: core.Concrete("0")},
				New: core.Variable{Name: "foreign_keys", Value: core.Concrete("ON")}},
			want: []string{`PRAGMA foreign_keys = ON`},
		},
		{
			name:    "invalid name",
			dialect: pgdialect.Postgres,
			req: synth.Request{Kind: core.KindVariable, Action: synth.ActionCreate,
				New: core.Variable{Name: "x; DROP TABLE t", Value: core.Concrete("1")}},
			wantErr: errInvalidVariable,
		},
	})
}
