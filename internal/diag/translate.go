package diag

import (
	"strings"

	"xcsc/internal/project"
	"xcsc/internal/source"
	"xcsc/internal/sourcemap"
)

// TranslateInput bundles everything needed to project one derived-file
// diagnostic back onto its source.
type TranslateInput struct {
	Diag       Downstream
	Derived    string
	Maps       []sourcemap.Entry
	SourcePath string
	Source     string
}

// Translator projects derived-file diagnostics into original coordinates and
// drops the suppressed ones.
type Translator struct {
	suppressed project.Suppressions
}

// NewTranslator creates a translator with the given suppression set.
func NewTranslator(suppressed project.Suppressions) *Translator {
	return &Translator{suppressed: suppressed}
}

// Translate returns the projected diagnostic. ok is false when the
// diagnostic is suppressed or no map entry can anchor it.
func (t *Translator) Translate(in TranslateInput) (Diagnostic, bool) {
	if t.suppressed.Has(in.Diag.Code) {
		return Diagnostic{}, false
	}

	lookupPos := in.Diag.StartOffset
	isPropError := false
	if start, ok := propsContainerStart(in.Derived, in.Diag.StartOffset); ok {
		lookupPos = start
		isPropError = true
	}

	entry, ok := sourcemap.Lookup(in.Maps, lookupPos)
	if !ok {
		return Diagnostic{}, false
	}

	rel := 0
	if !isPropError {
		rel = lookupPos - entry.TransformedStart
		if rel < 0 {
			rel = 0
		}
	}
	origPos := entry.OriginalStart + rel
	if origPos < 0 {
		origPos = 0
	}
	if origPos > len(in.Source) {
		origPos = len(in.Source)
	}

	width := in.Diag.Length
	if isPropError {
		width = tagNameWidth(in.Source, origPos)
	}
	if width < 1 {
		width = 1
	}
	end := origPos + width
	if end > len(in.Source) {
		end = len(in.Source)
	}

	startLC := source.LineColAt([]byte(in.Source), uint32(origPos)) //nolint:gosec // clamped above
	endLC := source.LineColAt([]byte(in.Source), uint32(end))       //nolint:gosec // clamped above

	return Diagnostic{
		Severity:    in.Diag.Severity,
		Code:        in.Diag.Code,
		Message:     in.Diag.Message,
		Path:        in.SourcePath,
		StartOffset: origPos,
		EndOffset:   end,
		Start:       startLC,
		End:         endLC,
	}, true
}

// propsContainerStart reports whether the derived offset falls on a property
// container's creation head: the "new <Type>Props" run, before any
// initializer body. Positions inside the initializer braces resolve through
// their own map entries instead, so a value-level diagnostic keeps its exact
// range.
func propsContainerStart(derived string, off int) (int, bool) {
	from := 0
	for {
		idx := strings.Index(derived[from:], "new ")
		if idx < 0 {
			return 0, false
		}
		newPos := from + idx
		from = newPos + 4

		nameEnd := newPos + 4
		for nameEnd < len(derived) && isIdentByte(derived[nameEnd]) {
			nameEnd++
		}
		if !strings.HasSuffix(derived[newPos+4:nameEnd], "Props") {
			continue
		}
		// Head runs through the type name and, for an empty props object,
		// its "()".
		headEnd := nameEnd
		if strings.HasPrefix(derived[nameEnd:], "()") {
			headEnd = nameEnd + 2
		}
		if off >= newPos && off <= headEnd {
			return newPos, true
		}
	}
}

// tagNameWidth measures the highlight width at a projected tag position: an
// optional leading '<', then the maximal identifier run, one byte minimum.
func tagNameWidth(src string, pos int) int {
	width := 0
	i := pos
	if i < len(src) && src[i] == '<' {
		width++
		i++
	}
	for i < len(src) && isTagIdentByte(src[i]) {
		width++
		i++
	}
	if width < 1 {
		width = 1
	}
	return width
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func isTagIdentByte(b byte) bool {
	return isIdentByte(b) || b == '.'
}
