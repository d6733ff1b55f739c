// Package printer writes human-facing status lines for CLI commands.
//
// Status output goes to stderr so command results on stdout stay pipeable.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/zurielbm/pp2ot-bridge/internal/core/styles"
)

type ctxKey struct{}

// Printer formats status messages. Styling is dropped when the writer is not
// a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, color: IsTerminal(w)}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or a stderr printer.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stderr)
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Styled reports whether output carries ANSI styling.
func (p *Printer) Styled() bool {
	return p.color
}

func (p *Printer) render(style interface{ Render(...string) string }, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// Success prints a checkmark line with an optional muted detail.
func (p *Printer) Success(msg, detail string) {
	line := p.render(styles.SuccessStyle, styles.IconCheck) + " " + msg
	if detail != "" {
		line += " " + p.render(styles.MutedStyle, detail)
	}
	_, _ = fmt.Fprintln(p.w, line)
}

func (p *Printer) Successf(format string, args ...any) {
	p.Success(fmt.Sprintf(format, args...), "")
}

func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, p.render(styles.WarningStyle, styles.IconWarn+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, p.render(styles.ErrorStyle, styles.IconCross+" "+fmt.Sprintf(format, args...)))
}

// Printf writes without a trailing newline or styling.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Section prints a bold heading preceded by a blank line.
func (p *Printer) Section(title string) {
	_, _ = fmt.Fprintln(p.w)
	_, _ = fmt.Fprintln(p.w, p.render(styles.HeaderStyle, title))
}

func (p *Printer) CheckItem(label, detail string) {
	p.item(styles.SuccessStyle, styles.IconCheck, label, detail)
}

func (p *Printer) WarnItem(label, detail string) {
	p.item(styles.WarningStyle, styles.IconWarn, label, detail)
}

func (p *Printer) FailItem(label, detail string) {
	p.item(styles.ErrorStyle, styles.IconCross, label, detail)
}

func (p *Printer) item(style interface{ Render(...string) string }, icon, label, detail string) {
	line := "  " + p.render(style, icon) + " " + label
	if detail != "" {
		line += p.render(styles.MutedStyle, " ("+detail+")")
	}
	_, _ = fmt.Fprintln(p.w, line)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
