package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Printer writes report lines and run messages to a terminal.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	term  *termenv.Output
	clear bool

	info    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	err     lipgloss.Style
	header  lipgloss.Style
}

// NewPrinter creates a Printer for w. Colours follow profile; termenv.Ascii
// disables them. When clear is set, Info with reset clears the screen first.
func NewPrinter(w io.Writer, profile termenv.Profile, clear bool) *Printer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	return &Printer{
		out:     w,
		term:    termenv.NewOutput(w, termenv.WithProfile(profile)),
		clear:   clear,
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		err:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		header:  r.NewStyle().Bold(true),
	}
}

// Info prints a status message. reset marks the start of a new run.
func (p *Printer) Info(msg string, reset bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if reset && p.clear {
		p.term.ClearScreen()
	}
	_, _ = fmt.Fprintln(p.out, p.info.Render(msg))
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, p.err.Render(msg))
}

// Lines prints rendered report lines.
func (p *Printer) Lines(lines []Line) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range lines {
		_, _ = fmt.Fprintln(p.out, p.style(l.Kind).Render(l.String()))
	}
}

func (p *Printer) style(k Kind) lipgloss.Style {
	switch k {
	case KindSuccess:
		return p.success
	case KindFailure:
		return p.failure
	case KindError:
		return p.err
	case KindSuiteHeader:
		return p.header
	default:
		return lipgloss.Style{}
	}
}
