package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/internal/cli/output"
	"github.com/leapstack-labs/leapedit/internal/journal"
	"github.com/leapstack-labs/leapedit/pkg/gate"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	All    bool
	Format string
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List executed scripts from the journal",
		Long: `List the scripts recorded in the execution journal, newest first.

Every confirmed execution is recorded, including failed attempts, so a
failed change can be inspected with "history show" and run again with
"history replay".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "number", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Include entries from every target")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text, json")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return output.Modes(), cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryReplayCommand())
	cmd.AddCommand(newHistoryPruneCommand())
	return cmd
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	mode, err := output.ParseMode(opts.Format)
	if err != nil {
		return err
	}
	cc, err := NewCommandContextWithoutTarget(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = cc.Journal.Close() }()
	r := output.NewRenderer(cc.Out, cc.ErrOut, mode)

	target := cc.TargetLabel()
	if opts.All {
		target = ""
	}
	entries, err := cc.Journal.List(cmd.Context(), target, opts.Limit)
	if err != nil {
		return err
	}
	if mode == output.ModeJSON {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return r.JSON(entries)
	}
	if len(entries) == 0 {
		r.Println("(0 executions)")
		return nil
	}

	t := newTable(r.Writer())
	t.AppendHeader(table.Row{heading("id"), heading("started"), heading("target"), heading("kind"), heading("attempt"), heading("status"), heading("statement")})
	for _, e := range entries {
		t.AppendRow(table.Row{
			shortID(e.ID),
			e.Started.Local().Format(time.DateTime),
			e.Target,
			e.Kind,
			e.Attempt,
			statusStyle(r.Styles(), e.Status).Render(e.Status),
			firstLine(e.Script),
		})
	}
	t.Render()
	r.Printf("(%d executions)\n", len(entries))
	return nil
}

func statusStyle(styles *output.Styles, status string) lipgloss.Style {
	switch status {
	case journal.StatusSucceeded:
		return styles.Success
	case journal.StatusFailed:
		return styles.Error
	default:
		return styles.Muted
	}
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded script and its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContextWithoutTarget(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cc.Journal.Close() }()

			e, err := cc.Journal.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cc.Out
			styles := cc.Renderer.Styles()
			_, _ = fmt.Fprintf(w, "ID:       %s\n", e.ID)
			_, _ = fmt.Fprintf(w, "Target:   %s\n", e.Target)
			_, _ = fmt.Fprintf(w, "Kind:     %s\n", e.Kind)
			_, _ = fmt.Fprintf(w, "Started:  %s\n", e.Started.Local().Format(time.RFC3339))
			_, _ = fmt.Fprintf(w, "Duration: %s\n", e.Duration)
			_, _ = fmt.Fprintf(w, "Attempt:  %d\n", e.Attempt)
			_, _ = fmt.Fprintf(w, "Status:   %s\n", statusStyle(styles, e.Status).Render(e.Status))
			if e.Error != "" {
				if e.FailedAt > 0 {
					_, _ = fmt.Fprintf(w, "Failed at statement %d\n", e.FailedAt)
				}
				_, _ = fmt.Fprintf(w, "Error:    %s\n", styles.Error.Render(e.Error))
			}
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, strings.TrimRight(e.Script, "\n"))
			if e.Tip != "" {
				_, _ = fmt.Fprintln(w)
				for _, line := range strings.Split(e.Tip, "\n") {
					_, _ = fmt.Fprintf(w, "-- %s\n", line)
				}
			}
			return nil
		},
	}
}

func newHistoryReplayCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Run a recorded script again on the current target",
		Long: `Send a recorded script through confirmation and execution again.

The script is run as recorded; edit it at the prompt if the database has
changed since. The replay is journaled as a new entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			e, err := cc.Journal.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			confirmer, closeConfirmer, err := chooseConfirmer(cc, yes)
			if err != nil {
				return err
			}
			defer closeConfirmer()

			out, err := cc.runGate(cmd.Context(), e.Kind, e.Script, e.Tip, confirmer)
			if err != nil {
				return err
			}
			switch out.Status {
			case gate.Succeeded:
				_, _ = fmt.Fprintln(cc.Out, "replayed")
			case gate.Cancelled:
				_, _ = fmt.Fprintln(cc.Out, "cancelled")
			case gate.Failed:
				return fmt.Errorf("%w: %w", ErrApplyFailed, out.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Execute without asking for confirmation")
	return cmd
}

func newHistoryPruneCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContextWithoutTarget(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cc.Journal.Close() }()

			n, err := cc.Journal.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cc.Out, "pruned %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of entries to delete")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	line, rest, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if strings.TrimSpace(rest) != "" {
		line += " ..."
	}
	return line
}

