package lexer

import (
	"xcsc/internal/markup/token"
)

// scanExpression scans a brace-delimited host expression starting at '{'.
// It tracks brace nesting; when a '(' at depth 1 opens into nested markup,
// the head so far is emitted, an LParen bridges into the top-level loop with
// isRoot unset, and brace tracking resumes on return. An unterminated
// expression emits nothing for the open tail.
func (lx *Lexer) scanExpression() {
	exprMark := lx.cursor.Mark()
	depth := 0
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '{':
			depth++
			lx.cursor.Bump()
		case '}':
			depth--
			lx.cursor.Bump()
			if depth == 0 {
				lx.emit(token.AttrExpression, exprMark)
				return
			}
		case '(':
			if depth == 1 && lx.bridgesToMarkup() {
				lx.emit(token.AttrExpression, exprMark)
				parenMark := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.emit(token.LParen, parenMark)
				lx.run(false)
				exprMark = lx.cursor.Mark()
				continue
			}
			lx.cursor.Bump()
		case '"':
			lx.skipQuotedRun()
		default:
			lx.cursor.Bump()
		}
	}
}

// bridgesToMarkup looks ahead from a '(' and reports whether a tag opens
// before the matching ')'. A '{' before any tag keeps the run inside the
// expression; the builder's hybrid pass picks it up instead.
func (lx *Lexer) bridgesToMarkup() bool {
	src := lx.cursor.src
	depth := 1
	for i := lx.cursor.off + 1; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return false
			}
		case '{', '}':
			return false
		case '"':
			for i++; i < len(src); i++ {
				if src[i] == '\\' {
					i++
				} else if src[i] == '"' {
					break
				}
			}
		case '<':
			if i+1 < len(src) && isTagNameByte(src[i+1]) {
				return true
			}
		}
	}
	return false
}

// skipQuotedRun advances over a quoted string inside an expression so a '}'
// in string content does not close the brace count.
func (lx *Lexer) skipQuotedRun() {
	lx.cursor.Bump() // '"'
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case '"':
			lx.cursor.Bump()
			return
		default:
			lx.cursor.Bump()
		}
	}
}
