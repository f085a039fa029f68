package lexer

import (
	"xcsc/internal/markup/token"
)

// scanTag scans one tag starting at '<': the opener, the tag name, and on an
// opening tag the attribute sub-loop through the closing '>' or '/>'.
func (lx *Lexer) scanTag() {
	m := lx.cursor.Mark()
	lx.cursor.Bump() // '<'
	closing := lx.cursor.Eat('/')
	lx.emit(token.TagOpen, m)

	nameMark := lx.cursor.Mark()
	for !lx.cursor.EOF() && isTagNameByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	lx.emit(token.TagName, nameMark)

	if closing {
		lx.cursor.SkipWhitespace()
		if lx.cursor.Peek() == '>' {
			closeMark := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.emit(token.TagClose, closeMark)
		}
		return
	}

	lx.scanAttributes()
}

// scanAttributes consumes the attribute list of an opening tag and the final
// '>' or '/>'. A missing close bracket ends the scan silently.
func (lx *Lexer) scanAttributes() {
	for {
		lx.cursor.SkipWhitespace()
		if lx.cursor.EOF() {
			return
		}
		switch b := lx.cursor.Peek(); b {
		case '>':
			m := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.emit(token.TagClose, m)
			return
		case '/':
			if lx.cursor.PeekAt(1) == '>' {
				m := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.cursor.Bump()
				lx.emit(token.TagClose, m)
				return
			}
			lx.cursor.Bump()
		case '{':
			lx.scanExpression()
		default:
			lx.scanAttribute()
		}
	}
}

// scanAttribute scans one name[=value] pair.
func (lx *Lexer) scanAttribute() {
	nameMark := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if isSpaceByte(b) || b == '=' || b == '>' || b == '/' {
			break
		}
		lx.cursor.Bump()
	}
	if int(nameMark) < lx.cursor.off {
		lx.emit(token.AttrName, nameMark)
	}

	lx.cursor.SkipWhitespace()
	if lx.cursor.Peek() != '=' {
		return
	}
	eqMark := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.emit(token.AttrEquals, eqMark)

	lx.cursor.SkipWhitespace()
	switch lx.cursor.Peek() {
	case '"':
		lx.scanQuoted()
	case '{':
		lx.scanExpression()
	}
}

// scanQuoted scans a double-quoted value, backslash escapes honored. The
// token range includes both quotes. An unterminated string emits nothing.
func (lx *Lexer) scanQuoted() {
	m := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '\\':
			lx.cursor.Bump()
			lx.cursor.Bump()
		case '"':
			lx.cursor.Bump()
			lx.emit(token.AttrString, m)
			return
		default:
			lx.cursor.Bump()
		}
	}
}
