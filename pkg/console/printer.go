package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes colored status lines. Colors are dropped automatically when
// the writer is not a terminal.
type Printer struct {
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (p *Printer) Success(format string, args ...any) {
	p.line(p.success, format, args...)
}

func (p *Printer) Failure(format string, args ...any) {
	p.line(p.failure, format, args...)
}

// Info prints an uncolored detail line, e.g. a status code or response body.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Hint prints a dimmed line for optional follow-up actions.
func (p *Printer) Hint(format string, args ...any) {
	p.line(p.muted, format, args...)
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}
