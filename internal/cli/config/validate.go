package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapedit/pkg/adapter"
)

// DefaultSchemaForType returns the default schema of a registered adapter's
// dialect, or "main" for unknown types.
func DefaultSchemaForType(dbType string) string {
	if d, ok := adapter.DialectFor(strings.ToLower(dbType)); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// ApplyTargetDefaults normalizes the type and fills schema and port.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// ValidateTarget checks that the target names a registered adapter and
// carries what that adapter needs to connect.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return errors.New("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	if t.Type == "postgres" && t.Database == "" {
		return errors.New("postgres target requires a database name")
	}
	return nil
}

// Validate checks editor settings and the target.
func (c *Config) Validate() error {
	switch c.Editor.Commit {
	case CommitAuto, CommitManual:
	default:
		return fmt.Errorf("editor.commit must be %q or %q, got %q", CommitAuto, CommitManual, c.Editor.Commit)
	}
	if strings.TrimSpace(c.Editor.Delimiter) == "" {
		return errors.New("editor.delimiter must not be empty")
	}
	if c.Editor.RowLimit < 0 {
		return fmt.Errorf("editor.row_limit must not be negative, got %d", c.Editor.RowLimit)
	}
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}
