// Package diag models diagnostics on both sides of the transform: raw
// downstream-compiler diagnostics against derived files, and translated
// diagnostics re-expressed in original-file coordinates.
package diag

import (
	"xcsc/internal/source"
)

// Downstream is a diagnostic the downstream compiler reported against a
// derived file. StartOffset and Length are byte-based.
type Downstream struct {
	File        string
	StartOffset int
	Length      int
	Code        string
	Severity    Severity
	Message     string
}

// Diagnostic is a translated diagnostic in original-file coordinates.
type Diagnostic struct {
	Severity    Severity
	Code        string
	Message     string
	Path        string
	StartOffset int
	EndOffset   int
	Start       source.LineCol
	End         source.LineCol
}
