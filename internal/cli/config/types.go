// Package config provides configuration management for the LeapEdit CLI.
//
// Configuration is layered with koanf: built-in defaults, then leapedit.yaml,
// then LEAPEDIT_* environment variables, then command-line flags.
package config

import "github.com/leapstack-labs/leapedit/pkg/core"

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Commit modes.
const (
	CommitAuto   = "auto"
	CommitManual = "manual"
)

// EditorConfig controls how scripts are composed and confirmed.
type EditorConfig struct {
	// Commit is "auto" (each statement commits) or "manual" (the script ends
	// with an explicit COMMIT and runs inside one transaction).
	Commit    string `koanf:"commit"`
	Delimiter string `koanf:"delimiter"`
	// RowLimit caps the rows loaded into a row editor; 0 loads all rows.
	RowLimit int `koanf:"row_limit"`
	// Command is the external editor used to edit a script before running it.
	// Empty falls back to $VISUAL, then $EDITOR.
	Command string `koanf:"command"`
}

// ManualCommit reports whether manual commit mode is selected.
func (e EditorConfig) ManualCommit() bool {
	return e.Commit == CommitManual
}

// Config holds all CLI configuration options.
type Config struct {
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	JournalPath  string               `koanf:"journal"`
	Target       *TargetConfig        `koanf:"target"`
	Editor       EditorConfig         `koanf:"editor"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultJournalFile = ".leapedit/journal.db"
	DefaultEnv         = "dev"
	DefaultCommit      = CommitAuto
	DefaultDelimiter   = ";"
	DefaultRowLimit    = 200
	DefaultTargetType  = "sqlite"
)

// AdapterConfig converts the target and editor settings into the adapter
// connection config.
func (c *Config) AdapterConfig() core.AdapterConfig {
	cfg := c.Target.AdapterConfig()
	cfg.ManualCommit = c.Editor.ManualCommit()
	cfg.Delimiter = c.Editor.Delimiter
	return cfg
}
