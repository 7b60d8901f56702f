package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapedit/pkg/gate"
)

const confirmPrompt = "[x] execute  [e] edit  [c] cancel > "

// lineReader is the part of readline the prompt uses.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// PromptConfirmer shows each draft and asks whether to execute, edit or
// cancel it.
type PromptConfirmer struct {
	rl   lineReader
	out  io.Writer
	edit func(ctx context.Context, script string) (string, error)
}

// NewPromptConfirmer creates an interactive confirmer on the terminal.
// editorCmd is used for [e]dit; empty falls back to $VISUAL, $EDITOR, vi.
func NewPromptConfirmer(out io.Writer, editorCmd string) (*PromptConfirmer, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          confirmPrompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "c",
		Stdout:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return &PromptConfirmer{
		rl:  rl,
		out: out,
		edit: func(ctx context.Context, script string) (string, error) {
			return editInEditor(ctx, resolveEditor(editorCmd), script)
		},
	}, nil
}

// Close releases the terminal.
func (p *PromptConfirmer) Close() error {
	return p.rl.Close()
}

// Confirm implements gate.Confirmer.
func (p *PromptConfirmer) Confirm(ctx context.Context, d *gate.Draft) (gate.Decision, error) {
	p.show(d)
	for {
		if err := ctx.Err(); err != nil {
			return gate.Cancel, err
		}
		line, err := p.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return gate.Cancel, nil
		}
		if err != nil {
			return gate.Cancel, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "x", "execute", "y", "yes":
			return gate.Execute, nil
		case "c", "cancel", "n", "no", "q":
			return gate.Cancel, nil
		case "e", "edit":
			edited, err := p.edit(ctx, d.Script)
			if err != nil {
				_, _ = fmt.Fprintf(p.out, "Edit failed: %v\n", err)
				continue
			}
			d.Script = edited
			p.show(d)
		case "":
		default:
			_, _ = fmt.Fprintf(p.out, "Unknown answer %q\n", line)
		}
	}
}

func (p *PromptConfirmer) show(d *gate.Draft) {
	_, _ = fmt.Fprintln(p.out)
	if d.LastErr != nil {
		_, _ = fmt.Fprintf(p.out, "Attempt %d failed: %v\n\n", d.Attempt-1, d.LastErr)
	}
	_, _ = fmt.Fprintln(p.out, strings.TrimRight(d.Script, "\n"))
	if d.Tip != "" {
		_, _ = fmt.Fprintln(p.out)
		for _, line := range strings.Split(d.Tip, "\n") {
			_, _ = fmt.Fprintf(p.out, "-- %s\n", line)
		}
	}
	_, _ = fmt.Fprintln(p.out)
}

// resolveEditor picks the script editor command.
func resolveEditor(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "vi"
}

// editInEditor writes script to a temp file, opens it in editorCmd and
// returns the saved contents.
func editInEditor(ctx context.Context, editorCmd, script string) (string, error) {
	f, err := os.CreateTemp("", "leapedit-*.sql")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(script); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	args := strings.Fields(editorCmd)
	if len(args) == 0 {
		return "", errors.New("no editor configured")
	}
	c := exec.CommandContext(ctx, args[0], append(args[1:], path)...) //#nosec G204 -- editor comes from the user's config or environment
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited script: %w", err)
	}
	return string(data), nil
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// chooseConfirmer returns gate.AutoConfirm with --yes, the interactive prompt
// on a terminal, and an error otherwise. The returned close func is never nil.
func chooseConfirmer(cc *CommandContext, yes bool) (gate.Confirmer, func(), error) {
	if yes {
		return gate.AutoConfirm, func() {}, nil
	}
	if !isInteractive() {
		return nil, nil, errors.New("not running in a terminal; pass --yes to execute without confirmation")
	}
	p, err := NewPromptConfirmer(cc.Out, cc.Cfg.Editor.Command)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}
