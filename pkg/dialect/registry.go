package dialect

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dialect)
)

// UnknownDialectError is returned by Lookup for a name no adapter registered.
type UnknownDialectError struct {
	Name      string
	Available []string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown dialect %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Register adds a dialect under its lower-cased name. Adapter dialect
// packages call it from init; registering a name twice panics.
func Register(d *Dialect) {
	if d == nil || d.Name == "" {
		panic("dialect: Register with empty dialect")
	}
	key := strings.ToLower(d.Name)

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		panic("dialect: Register called twice for " + key)
	}
	registry[key] = d
}

// Get returns a dialect by name, case-insensitively.
func Get(name string) (*Dialect, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[strings.ToLower(name)]
	return d, ok
}

// Lookup is Get with an error naming the registered dialects.
func Lookup(name string) (*Dialect, error) {
	if d, ok := Get(name); ok {
		return d, nil
	}
	return nil, &UnknownDialectError{Name: name, Available: List()}
}

// List returns the registered dialect names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
