package adapter_test

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite"
)

func TestListAdapters(t *testing.T) {
	adapters := adapter.ListAdapters()
	for _, name := range []string{"duckdb", "postgres", "sqlite"} {
		assert.Contains(t, adapters, name)
	}
}

func TestNewAdapter_Registered(t *testing.T) {
	tests := []struct {
		typ     string
		dialect string
	}{
		{"duckdb", "duckdb"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			a, err := adapter.NewAdapter(core.AdapterConfig{Type: tt.typ}, nil)
			require.NoError(t, err)
			require.NotNil(t, a)
			assert.Equal(t, tt.dialect, a.Dialect().GetName())
		})
	}
}

func TestOpen_SQLiteMemory(t *testing.T) {
	a, err := adapter.Open(context.Background(), core.AdapterConfig{Type: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, a.ExecScript(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT);\nINSERT INTO t (v) VALUES ('a;b');"))
	rows, err := a.Rows(context.Background(), core.TableRef{Name: "t"}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.Concrete("a;b"), rows[0].Cell("v"))
}
