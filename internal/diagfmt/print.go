// Package diagfmt renders translated diagnostics for the CLI.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"xcsc/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	pathColor    = color.New(color.Bold)
)

// Print writes one diagnostic as path:line:col: SEVERITY CODE message.
func Print(w io.Writer, d diag.Diagnostic) {
	sev := infoColor
	switch d.Severity {
	case diag.SevError:
		sev = errorColor
	case diag.SevWarning:
		sev = warningColor
	}
	fmt.Fprintf(w, "%s: %s %s %s\n",
		pathColor.Sprintf("%s:%d:%d", d.Path, d.Start.Line, d.Start.Col),
		sev.Sprint(d.Severity.String()),
		d.Code,
		d.Message,
	)
}

// PrintBag writes every diagnostic in the bag, sorted and deduplicated.
func PrintBag(w io.Writer, bag *diag.Bag) {
	bag.Sort()
	bag.Dedup()
	for _, d := range bag.Items() {
		Print(w, d)
	}
}

// SetColorEnabled toggles ANSI output globally.
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}
