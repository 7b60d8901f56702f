package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapedit/pkg/core"
	"github.com/leapstack-labs/leapedit/pkg/dialect"
)

// Factory creates an unconnected adapter.
type Factory func(*slog.Logger) Adapter

type registration struct {
	dialect *dialect.Dialect
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register adds an adapter factory under its dialect's name.
// Called by adapter implementations in their init() functions.
func Register(d *dialect.Dialect, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = registration{dialect: d, factory: factory}
}

// Get retrieves an adapter factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r.factory, ok
}

// DialectFor returns the dialect of a registered adapter type without
// connecting, e.g. to default a target's schema.
func DialectFor(name string) (*dialect.Dialect, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r.dialect, ok
}

// NewAdapter creates a new adapter instance based on config type.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// Open creates an adapter for cfg and connects it.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	a, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if an adapter type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: set target.type in leapedit.yaml or LEAPEDIT_TARGET_TYPE", e.Type, e.Available)
}
