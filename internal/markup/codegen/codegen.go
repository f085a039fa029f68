// Package codegen walks a markup tree and emits host factory-call code plus
// per-node position mappings. Original offsets in the returned entries are in
// the coordinates the nodes carry; transformed offsets are zero-based within
// the generated string.
package codegen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"xcsc/internal/markup/ast"
	"xcsc/internal/sourcemap"
)

// indentUnit is fixed for a whole run; nothing may assert its width.
const indentUnit = "    "

// Generator holds the output buffer and the factory identifiers for one
// region.
type Generator struct {
	factory string
	method  string
	out     strings.Builder
	maps    []sourcemap.Entry
}

// New creates a generator emitting factory.method(...) calls.
func New(factory, method string) *Generator {
	return &Generator{factory: factory, method: method}
}

// Generate renders the node list and returns the generated text with its
// local source-map entries, ordered by transformed start.
func (g *Generator) Generate(nodes []ast.Node) (string, []sourcemap.Entry) {
	g.out.Reset()
	g.maps = g.maps[:0]
	g.writeSiblings(nodes, 0)
	sourcemap.Sort(g.maps)
	return g.out.String(), g.maps
}

// writeSiblings renders nodes at one level, separated by ",\n". Nodes that
// render to nothing (whitespace-only literals) produce no separator either.
func (g *Generator) writeSiblings(nodes []ast.Node, level int) {
	first := true
	for _, n := range nodes {
		if blankLiteral(n) {
			continue
		}
		if !first {
			g.out.WriteString(",\n")
		}
		first = false
		g.writeNode(n, level)
	}
}

func (g *Generator) writeNode(n ast.Node, level int) {
	switch node := n.(type) {
	case *ast.Element:
		g.writeElement(node, level)
	case *ast.Expression:
		g.writeExpression(node, level)
	case *ast.StringLiteral:
		g.writeLiteral(node, level)
	}
}

// writeElement emits one factory call. Tag names are always emitted in the
// quoted string form, regardless of case.
func (g *Generator) writeElement(el *ast.Element, level int) {
	elStart := g.out.Len()
	g.indent(level)
	g.out.WriteString(g.factory)
	g.out.WriteByte('.')
	g.out.WriteString(g.method)
	g.out.WriteString("(\n")

	g.indent(level + 1)
	nameStart := g.out.Len()
	g.out.WriteByte('"')
	g.out.WriteString(el.TagName)
	g.out.WriteByte('"')
	g.record(el.Start+1, el.Start+1+len(el.TagName), nameStart)
	g.out.WriteString(",\n")

	g.indent(level + 1)
	g.out.WriteString("new ")
	g.out.WriteString(pascalCase(el.TagName))
	g.out.WriteString("Props")
	g.writeProps(el.Attrs)

	if hasRenderable(el.Children) {
		g.out.WriteString(",\n")
		g.writeSiblings(el.Children, level+1)
	}
	g.out.WriteByte('\n')
	g.indent(level)
	g.out.WriteByte(')')

	g.record(el.Start, el.End, elStart)
}

// writeProps renders the attribute object, or "()" when there are none.
func (g *Generator) writeProps(attrs []ast.Attr) {
	named := attrs[:0:0]
	for _, a := range attrs {
		if a.Name != "" {
			named = append(named, a)
		}
	}
	if len(named) == 0 {
		g.out.WriteString("()")
		return
	}
	g.out.WriteString(" { ")
	for i, a := range named {
		if i > 0 {
			g.out.WriteString(", ")
		}
		propStart := g.out.Len()
		g.out.WriteString(pascalCase(a.Name))
		g.record(a.NameStart, a.NameEnd, propStart)
		g.out.WriteString(" = ")
		g.writeAttrValue(a.Value)
	}
	g.out.WriteString(" }")
}

// writeAttrValue emits one attribute value; an unresolved slot becomes the
// literal null.
func (g *Generator) writeAttrValue(v ast.Node) {
	switch node := v.(type) {
	case *ast.StringLiteral:
		start := g.out.Len()
		g.out.WriteString(quoteValue(node.Value))
		g.record(node.Start, node.End, start)
	case *ast.Expression:
		start := g.out.Len()
		g.out.WriteString(stripBraces(node.Text))
		g.record(innerStart(node), innerEnd(node), start)
	default:
		g.out.WriteString("null")
	}
}

// writeExpression emits a host expression child. A hybrid expression splits
// at the arrow (or the first tag) and wraps its markup children in parens;
// an original trailing ')' is re-appended.
func (g *Generator) writeExpression(e *ast.Expression, level int) {
	stripped := stripBraces(e.Text)
	if !e.Hybrid() {
		g.indent(level)
		start := g.out.Len()
		g.out.WriteString(stripped)
		g.record(innerStart(e), innerEnd(e), start)
		return
	}

	head := stripped
	trailing := strings.HasSuffix(strings.TrimSpace(stripped), ")")
	if idx := strings.Index(stripped, "=>"); idx >= 0 {
		head = stripped[:idx+2]
	} else if lt := strings.IndexByte(stripped, '<'); lt >= 0 {
		head = stripped[:lt]
	} else if trailing {
		head = strings.TrimSpace(stripped[:len(strings.TrimSpace(stripped))-1])
	}

	g.indent(level)
	start := g.out.Len()
	g.out.WriteString(head)
	g.record(e.Start, min(e.Start+len(head)+1, e.End), start)
	g.out.WriteString("(\n")
	g.writeSiblings(e.Children, level+1)
	g.out.WriteByte('\n')
	g.indent(level)
	g.out.WriteByte(')')
	if trailing {
		g.out.WriteByte(')')
	}
	g.record(e.Start, e.End, start)
}

// writeLiteral emits free text as a quoted, backslash-escaped string.
func (g *Generator) writeLiteral(s *ast.StringLiteral, level int) {
	trimmed := strings.TrimSpace(s.Value)
	if trimmed == "" {
		return
	}
	g.indent(level)
	start := g.out.Len()
	g.out.WriteString(quoteValue(trimmed))
	g.record(s.Start, s.End, start)
}

func (g *Generator) indent(level int) {
	for range level {
		g.out.WriteString(indentUnit)
	}
}

// record adds a map entry from an original range to the output written since
// transformedStart.
func (g *Generator) record(origStart, origEnd, transformedStart int) {
	g.maps = append(g.maps, sourcemap.Entry{
		OriginalStart:    origStart,
		OriginalEnd:      origEnd,
		TransformedStart: transformedStart,
		TransformedEnd:   g.out.Len(),
	})
}

func blankLiteral(n ast.Node) bool {
	s, ok := n.(*ast.StringLiteral)
	return ok && strings.TrimSpace(s.Value) == ""
}

func hasRenderable(nodes []ast.Node) bool {
	for _, n := range nodes {
		if !blankLiteral(n) {
			return true
		}
	}
	return false
}

// pascalCase upper-cases the first code point and keeps the rest verbatim.
func pascalCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// stripBraces removes one outer {..} pair, if present, and trims.
func stripBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		s = s[1:]
	}
	if strings.HasSuffix(s, "}") {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

// quoteValue renders a string value for the generated call. An
// already-quoted value keeps its (already escaped) body; free text gets
// backslash and quote escaping.
func quoteValue(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// innerStart locates the original offset of an expression's payload: the
// first byte after the '{' and any leading space.
func innerStart(e *ast.Expression) int {
	off := 0
	for off < len(e.Text) && (e.Text[off] == '{' || e.Text[off] == ' ' ||
		e.Text[off] == '\t' || e.Text[off] == '\n') {
		off++
	}
	return e.Start + off
}

// innerEnd mirrors innerStart from the back, past the closing '}'.
func innerEnd(e *ast.Expression) int {
	off := len(e.Text)
	for off > 0 {
		b := e.Text[off-1]
		if b == '}' || b == ' ' || b == '\t' || b == '\n' {
			off--
			continue
		}
		break
	}
	return e.Start + off
}
