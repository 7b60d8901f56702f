// Package postgres provides a PostgreSQL database adapter for LeapEdit.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapedit/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	pgdialect "github.com/leapstack-labs/leapedit/pkg/adapters/postgres/dialect"
)

func init() {
	adapter.Register(pgdialect.Postgres, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
