package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer writes chain output and lifecycle events to a terminal, colored when the
// terminal supports it.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	out     *termenv.Output
	verbose bool
}

// NewPrinter creates a printer on w. Verbose also prints step activations.
func NewPrinter(w io.Writer, verbose bool, opts ...termenv.OutputOption) *Printer {
	return &Printer{
		w:       w,
		out:     termenv.NewOutput(w, opts...),
		verbose: verbose,
	}
}

// Say prints text produced by a chain's step.
func (p *Printer) Say(chainID, text string) {
	p.line(p.out.String(fmt.Sprintf("[%s]", chainID)).Bold().String() + " " + text)
}

// Hooks returns lifecycle hooks that print each event.
func (p *Printer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChainStart: func(_ context.Context, e *domain.ChainEvent) {
			p.event("#38bdf8", "start", e, fmt.Sprintf("%s, %d steps", e.Mode, e.Steps))
		},
		OnStepActivate: func(_ context.Context, e *domain.ChainEvent) {
			if p.verbose {
				p.event("#64748b", "step", e, fmt.Sprintf("%d/%d", e.Step+1, e.Steps))
			}
		},
		OnChainFinish: func(_ context.Context, e *domain.ChainEvent) {
			p.event("#4ade80", "done", e, "")
		},
		OnChainStop: func(_ context.Context, e *domain.ChainEvent) {
			detail := "stopped"
			if e.Forced {
				detail = "stopped, forced"
			}
			p.event("#facc15", "stop", e, detail)
		},
		OnChainReplaced: func(_ context.Context, e *domain.ChainEvent) {
			p.event("#f472b6", "replace", e, "")
		},
	}
}

func (p *Printer) event(color, label string, e *domain.ChainEvent, detail string) {
	tag := p.out.String(fmt.Sprintf("%-7s", label)).Foreground(p.out.Color(color))
	text := fmt.Sprintf("%s %s", tag, e.ChainID)
	if detail != "" {
		text += " " + p.out.String("("+detail+")").Faint().String()
	}
	p.line(text)
}

func (p *Printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}
