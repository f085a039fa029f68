package parser

import (
	"strings"

	"xcsc/internal/markup/ast"
	"xcsc/internal/markup/lexer"
	"xcsc/internal/markup/token"
)

// parseExpression consumes an AttrExpression token and any bridge run the
// lexer produced after it (LParen, nested markup tokens, the tail
// AttrExpression). Expressions whose single token embeds markup directly are
// re-lexed as a hybrid.
func (b *Builder) parseExpression() ast.Node {
	head := b.next()
	node := &ast.Expression{
		Text:  b.text(head),
		Start: head.Start,
		End:   head.End,
	}

	if b.peek().Kind == token.LParen {
		b.parseBridge(node)
		return node
	}

	b.parseHybrid(node)
	return node
}

// parseBridge folds a lexer bridge run into node: the '(' and any lambda-head
// text join the expression text, tags become children, and the trailing
// AttrExpression (the lambda tail, closing brace included) is appended to the
// text so the generator sees the original trailing ')'.
func (b *Builder) parseBridge(node *ast.Expression) {
	paren := b.next() // LParen
	node.Text += "("
	node.End = paren.End

	// Host text between the '(' and the first tag belongs to the head.
	for b.peek().Kind == token.AttrName && len(node.Children) == 0 {
		t := b.next()
		node.Text += b.text(t)
		node.End = t.End
	}

loop:
	for !b.eof() {
		t := b.peek()
		switch t.Kind {
		case token.TagOpen:
			if t.IsClosingTagOpen() {
				break loop
			}
			node.Children = append(node.Children, b.parseElement())
			node.End = b.lastEnd()
		case token.AttrName:
			b.next()
			if strings.TrimSpace(b.text(t)) != "" {
				node.Children = append(node.Children,
					&ast.StringLiteral{Value: b.text(t), Start: t.Start, End: t.End})
			}
		case token.AttrExpression:
			b.next()
			node.Text += b.text(t)
			node.End = t.End
			break loop
		case token.RParen:
			b.next()
			node.Text += ")"
			node.End = t.End
		default:
			break loop
		}
	}

	// Structural parens trailing the lambda body.
	for b.peek().Kind == token.RParen {
		t := b.next()
		node.Text += ")"
		node.End = t.End
	}
}

// parseHybrid re-lexes an expression whose raw text embeds markup. The node
// adopts the nested tree as children; its text shrinks to the host head
// before the first tag, plus any tail that closes a call after the markup.
func (b *Builder) parseHybrid(node *ast.Expression) {
	text := node.Text
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return
	}
	lt := strings.IndexByte(text, '<')
	gt := strings.LastIndexByte(text, '>')
	if lt < 0 || gt < 0 || gt < lt {
		return
	}

	inner := text[1 : len(text)-1]
	innerBase := node.Start + 1
	toks := lexer.Lex(inner, lexer.Options{StartOffset: innerBase, SkipToTag: true})
	children := Build(toks, inner, innerBase)
	if len(children) == 0 {
		return
	}

	node.Children = children
	node.Text = strings.TrimSpace(text[:lt])
	tail := strings.TrimSpace(text[gt+1 : len(text)-1])
	if strings.Contains(tail, ")") {
		node.Text += tail
	}
}
