package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapedit/internal/cli/output"
	"github.com/leapstack-labs/leapedit/internal/plan"
	"github.com/leapstack-labs/leapedit/pkg/editor"
	"github.com/leapstack-labs/leapedit/pkg/gate"
	"github.com/leapstack-labs/leapedit/pkg/script"
	"github.com/leapstack-labs/leapedit/pkg/synth"
)

// ErrApplyFailed is returned when a plan's script failed and was not retried successfully.
var ErrApplyFailed = errors.New("apply failed")

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	Yes    bool
	DryRun bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Apply an edit plan to the target",
		Long: `Load the entities an edit plan targets, apply its changes, and run the
synthesized script after confirmation.

Each document of the plan is confirmed and executed on its own. A failed
script can be edited and retried; cancelling leaves the database untouched.
Use "-" to read the plan from standard input.`,
		Example: `  leapedit apply changes.yaml
  leapedit apply changes.yaml --dry-run
  leapedit apply changes.yaml --yes --commit manual`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Execute without asking for confirmation")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the scripts without executing them")

	return cmd
}

func runApply(cmd *cobra.Command, path string, opts *ApplyOptions) error {
	docs, err := plan.ParseFile(path)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Dry runs never reach the gate.
	var confirmer gate.Confirmer
	closeConfirmer := func() {}
	if !opts.DryRun {
		confirmer, closeConfirmer, err = chooseConfirmer(cc, opts.Yes)
		if err != nil {
			return err
		}
	}
	defer closeConfirmer()

	ctx := cmd.Context()
	r := cc.Renderer
	styles := r.Styles()
	for i, doc := range docs {
		label := fmt.Sprintf("plan %d/%d: %s %s", i+1, len(docs), doc.Kind, docTarget(doc))
		r.Println(styles.Bold.Render(label))

		session := plan.Session{
			Catalog:  cc.Adapter,
			Dialect:  cc.Adapter.Dialect(),
			Deps:     cc.EditorDeps(string(doc.Kind), confirmer),
			RowLimit: cc.Cfg.Editor.RowLimit,
		}
		target, err := plan.Open(ctx, session, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}

		if opts.DryRun {
			s, p, err := target.Preview()
			printRowErrors(r, p.RowErrors)
			if errors.Is(err, script.ErrNothingToSubmit) {
				r.Println(styles.Muted.Render("  nothing to submit"))
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			printScript(r, s)
			continue
		}

		res, err := target.Submit(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		printRowErrors(r, res.RowErrors)
		cc.Logger.Info("plan submitted",
			slog.String("kind", string(doc.Kind)),
			slog.String("status", res.Status.String()))

		switch res.Status {
		case editor.StatusNothing:
			r.Println(styles.Muted.Render("  nothing to submit"))
		case editor.StatusSuccess:
			r.Println(styles.Success.Render("  applied"))
		case editor.StatusCancelled:
			r.Println(styles.Warning.Render("  cancelled; remaining plans skipped"))
			return nil
		case editor.StatusFailed:
			return fmt.Errorf("%w: %s: %w", ErrApplyFailed, label, res.Err)
		}
	}
	return nil
}

func docTarget(doc plan.Document) string {
	if doc.Table != "" {
		return doc.Table
	}
	return doc.Schema
}

func printScript(r *output.Renderer, s script.Script) {
	for _, line := range strings.Split(strings.TrimRight(s.SQL, "\n"), "\n") {
		r.Printf("  %s\n", line)
	}
	for _, tip := range s.Tips {
		r.Println(r.Styles().Muted.Render("  -- " + tip))
	}
}

func printRowErrors(r *output.Renderer, errs []*synth.RowError) {
	for _, e := range errs {
		r.Println(r.Styles().Warning.Render(fmt.Sprintf("  skipped: %v", e)))
	}
}
