// Package sqlite provides a SQLite database adapter for LeapEdit.
//
// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
	sqlitedialect "github.com/leapstack-labs/leapedit/pkg/adapters/sqlite/dialect"
)

func init() {
	adapter.Register(sqlitedialect.SQLite, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
