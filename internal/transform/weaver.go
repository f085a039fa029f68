// Package transform stitches a host file back together: identity-mapped host
// slices interleaved with each markup region routed through the lexer,
// builder, and generator. The output is the derived text plus the global
// position map.
package transform

import (
	"strings"

	"xcsc/internal/host"
	"xcsc/internal/markup/codegen"
	"xcsc/internal/markup/lexer"
	"xcsc/internal/markup/parser"
	"xcsc/internal/sourcemap"
)

// Payload is the unit of output of the core: one derived file with the
// ordered map entries spanning the whole of it.
type Payload struct {
	File       string
	Content    string
	SourceMaps []sourcemap.Entry
}

// Weaver transforms whole files with fixed factory identifiers.
type Weaver struct {
	factory string
	method  string
}

// NewWeaver creates a weaver emitting factory.method(...) calls.
func NewWeaver(factory, method string) *Weaver {
	return &Weaver{factory: factory, method: method}
}

// Transform produces the derived text and map for one file. The returned
// offsets are the raw positions of markup openers whose parenthesis never
// balances; those regions are left as-is for the downstream compiler.
func (w *Weaver) Transform(path, content string) (*Payload, []int) {
	tree := host.Parse(content)
	regions, unbalanced := host.Locate(tree)

	var out strings.Builder
	out.Grow(len(content) + len(content)/2)
	maps := make([]sourcemap.Entry, 0, 2*len(regions)+2)

	identity := func(origStart, origEnd int) {
		if origStart >= origEnd {
			return
		}
		tStart := out.Len()
		out.WriteString(content[origStart:origEnd])
		maps = append(maps, sourcemap.Entry{
			OriginalStart:    origStart,
			OriginalEnd:      origEnd,
			TransformedStart: tStart,
			TransformedEnd:   out.Len(),
		})
	}

	lastPos := 0
	for _, r := range regions {
		if r.Start < lastPos {
			// Overlapping region: the first one by start already covers it.
			continue
		}
		identity(lastPos, r.Start)

		regionTStart := out.Len()
		identity(r.Start, r.XMLStart) // '(' and leading whitespace

		xmlOnly := content[r.XMLStart:r.XMLEnd]
		toks := lexer.Lex(xmlOnly, lexer.Options{SkipToTag: true})
		nodes := parser.Build(toks, xmlOnly, 0)

		if len(nodes) == 0 {
			// Nothing transformable: keep the markup verbatim so the
			// downstream compiler reports at original coordinates.
			identity(r.XMLStart, r.XMLEnd)
		} else {
			gen := codegen.New(w.factory, w.method)
			generated, localMaps := gen.Generate(nodes)
			codeStart := out.Len()
			out.WriteString(generated)
			for _, lm := range localMaps {
				maps = append(maps, sourcemap.Entry{
					OriginalStart:    r.XMLStart + lm.OriginalStart,
					OriginalEnd:      r.XMLStart + lm.OriginalEnd,
					TransformedStart: codeStart + lm.TransformedStart,
					TransformedEnd:   codeStart + lm.TransformedEnd,
				})
			}
		}

		identity(r.XMLEnd, r.End) // trailing whitespace and ')'
		maps = append(maps, sourcemap.Entry{
			OriginalStart:    r.Start,
			OriginalEnd:      r.End,
			TransformedStart: regionTStart,
			TransformedEnd:   out.Len(),
		})
		lastPos = r.End
	}
	identity(lastPos, len(content))

	if len(maps) == 0 {
		maps = append(maps, sourcemap.Entry{
			OriginalStart:  0,
			OriginalEnd:    len(content),
			TransformedEnd: out.Len(),
		})
	}
	sourcemap.Sort(maps)

	return &Payload{
		File:       path,
		Content:    out.String(),
		SourceMaps: maps,
	}, unbalanced
}
