package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/internal/cli/config"
	"github.com/leapstack-labs/leapedit/internal/cli/output"
	"github.com/leapstack-labs/leapedit/internal/journal"
	"github.com/leapstack-labs/leapedit/pkg/adapter"
	"github.com/leapstack-labs/leapedit/pkg/editor"
	"github.com/leapstack-labs/leapedit/pkg/gate"
	"github.com/leapstack-labs/leapedit/pkg/script"
	"github.com/leapstack-labs/leapedit/pkg/stmt"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Adapter  adapter.Adapter
	Journal  *journal.Store
	Renderer *output.Renderer
	Out      io.Writer
	ErrOut   io.Writer
}

// NewCommandContext connects to the configured target and opens the journal.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutTarget(cmd)
	if err != nil {
		return nil, nil, err
	}

	adp, err := adapter.Open(cmd.Context(), cc.Cfg.AdapterConfig(), cc.Logger)
	if err != nil {
		_ = cc.Journal.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", cc.Cfg.Target.Type, err)
	}
	cc.Adapter = adp
	cc.Logger.Debug("connected",
		slog.String("type", cc.Cfg.Target.Type),
		slog.String("database", cc.Cfg.Target.Database),
		slog.Bool("manual_commit", cc.Cfg.Editor.ManualCommit()))

	cleanup := func() {
		_ = adp.Close()
		_ = cc.Journal.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutTarget opens only the journal.
// Useful for commands that don't need database access.
func NewCommandContextWithoutTarget(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())

	store := journal.NewStore()
	if err := store.Open(cfg.JournalPath); err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Journal:  store,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText),
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
	}, nil
}

// TargetLabel names the target in the journal.
func (c *CommandContext) TargetLabel() string {
	env := c.Cfg.Environment
	if env == "" {
		env = config.DefaultEnv
	}
	return fmt.Sprintf("%s:%s", env, c.Cfg.Target.Type)
}

// EditorDeps wires the composer and a journaled gate for one entity kind.
func (c *CommandContext) EditorDeps(kind string, confirmer gate.Confirmer) editor.Deps {
	d := c.Adapter.Dialect()
	builder := stmt.New(d, stmt.WithLogger(c.Logger))
	composer := script.New(builder, d,
		script.WithDelimiter(c.Cfg.Editor.Delimiter),
		script.WithManualCommit(c.Cfg.Editor.ManualCommit()),
		script.WithLogger(c.Logger))
	g := gate.New(c.Adapter, confirmer,
		gate.WithRecorder(c.Journal.Recorder(c.TargetLabel(), kind)),
		gate.WithLogger(c.Logger))
	return editor.Deps{Composer: composer, Gate: g, Logger: c.Logger}
}

// runGate sends a raw script through a journaled gate. Used by history replay.
func (c *CommandContext) runGate(ctx context.Context, kind, sql, tip string, confirmer gate.Confirmer) (gate.Outcome, error) {
	g := gate.New(c.Adapter, confirmer,
		gate.WithRecorder(c.Journal.Recorder(c.TargetLabel(), kind)),
		gate.WithLogger(c.Logger))
	return g.Run(ctx, sql, tip)
}
