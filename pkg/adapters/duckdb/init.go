// Package duckdb provides a DuckDB database adapter for LeapEdit.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	ddbdialect "github.com/leapstack-labs/leapedit/pkg/adapters/duckdb/dialect"
)

func init() {
	adapter.Register(ddbdialect.DuckDB, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
