package scan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/render"

	"golang.org/x/term"
)

// Prompter asks the operator at every gate: whether to view the rows, then whether to go on.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions and tables to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Decide implements reconcile.Decider.
func (p *Prompter) Decide(ctx context.Context, gate reconcile.Gate) (reconcile.Decision, error) {
	var summary, question string
	switch gate.Stage {
	case reconcile.StageMissing:
		summary = fmt.Sprintf("%d %s objects recorded in the catalog could not be found in the warehouse.", len(gate.Rows), gate.Kind)
		question = "Do you want to proceed without fixing these mappings yourself?"
	default:
		summary = fmt.Sprintf("%d new %s objects were found.", len(gate.Rows), gate.Kind)
		question = fmt.Sprintf("Do you want to record these %s objects in the catalog?", gate.Kind)
	}
	_, _ = fmt.Fprintln(p.out, summary)

	view, err := p.confirm(ctx, "View?")
	if err != nil {
		return reconcile.Abort, err
	}
	if view {
		render.Table(p.out, gate.Columns, gate.Rows)
	}

	ok, err := p.confirm(ctx, question)
	if err != nil {
		return reconcile.Abort, err
	}
	if !ok {
		return reconcile.Abort, nil
	}
	return reconcile.Proceed, nil
}

// confirm asks a yes/no question. Anything but y or yes is a no; end of input is a no.
func (p *Prompter) confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", question)

	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
