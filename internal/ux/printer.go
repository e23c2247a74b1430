package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Printer writes one styled status line per call.
type Printer struct {
	out io.Writer
	err io.Writer
}

// NewPrinter writes progress and success to out and errors to errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, successStyle.Render("✓ "+msg))
}

func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.err, errorStyle.Render("✗ "+msg))
}

func (p *Printer) Progress(msg string) {
	fmt.Fprintln(p.out, infoStyle.Render("⟳ "+msg))
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *Printer) Muted(msg string) {
	fmt.Fprintln(p.out, mutedStyle.Render(msg))
}
