// Package printer writes the CLI's human-readable status lines with
// color. Machine-readable output (--json) bypasses it.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Printer writes status lines to Out and errors to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a Printer on the given writers. Nil writers default to the
// process's stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut}
}

// Success prints a green line with a check mark.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line to Err.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Err, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Header prints a bold line, used for table headings.
func (p *Printer) Header(format string, a ...any) {
	bold.Fprintf(p.Out, format+"\n", a...)
}

// Printf prints uncolored text.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.Out, format, a...)
}

// Error prints a red title, an explanation and optional suggestions to
// Err.
func (p *Printer) Error(title, explanation string, suggestions []string) {
	red.Fprintf(p.Err, "Error: %s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.Err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.Err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
		}
	}
}

// SetColor forces color on or off, overriding terminal detection.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}
