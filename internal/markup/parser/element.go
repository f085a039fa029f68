package parser

import (
	"xcsc/internal/markup/ast"
	"xcsc/internal/markup/token"
)

// parseElement consumes one element: opener, name, attribute pairs, then
// either a self-close or children plus the matching closing tag. A closing
// tag that names a different element is left unconsumed so the outer parent
// can claim it; the element ends at the last consumed token.
func (b *Builder) parseElement() ast.Node {
	open := b.next() // TagOpen "<"
	el := &ast.Element{Start: open.Start, End: open.End}

	if b.peek().Kind == token.TagName {
		name := b.next()
		el.TagName = b.text(name)
		el.End = name.End
	}

	selfClosed := false
	for !b.eof() {
		t := b.peek()
		if t.Kind == token.TagClose {
			b.next()
			el.End = t.End
			if t.IsSelfClose() {
				selfClosed = true
			}
			break
		}
		switch t.Kind {
		case token.AttrName:
			el.Attrs = append(el.Attrs, b.parseAttr())
		case token.AttrExpression:
			// Bare expression in attribute position; kept with an empty
			// name so the source span stays reachable.
			value := b.parseExpression()
			el.Attrs = append(el.Attrs, ast.Attr{Value: value})
		default:
			b.next()
		}
	}

	if selfClosed {
		return el
	}

	el.Children = b.parseSiblings(el.TagName)
	el.End = b.lastEnd()

	// Closing tag: consume only when it matches.
	if b.peek().IsClosingTagOpen() && b.peekAt(1).Kind == token.TagName &&
		b.text(b.peekAt(1)) == el.TagName {
		b.next()
		b.next()
		if b.peek().Kind == token.TagClose {
			closeTok := b.next()
			el.End = closeTok.End
		} else {
			el.End = b.lastEnd()
		}
	}
	return el
}

// parseAttr consumes one name[=value] pair. A missing or unrecognized value
// leaves Value nil.
func (b *Builder) parseAttr() ast.Attr {
	name := b.next()
	attr := ast.Attr{
		Name:      b.text(name),
		NameStart: name.Start,
		NameEnd:   name.End,
	}
	if b.peek().Kind != token.AttrEquals {
		return attr
	}
	b.next()
	switch t := b.peek(); t.Kind {
	case token.AttrString:
		b.next()
		attr.Value = &ast.StringLiteral{Value: b.text(t), Start: t.Start, End: t.End}
	case token.AttrExpression:
		attr.Value = b.parseExpression()
	}
	return attr
}
