// Package lexer scans one embedded markup region into a flat token vector.
// Tokens carry absolute half-open offsets (region offset + StartOffset) and
// never own their text. The lexer does not fail on malformed input: it emits
// what it can and returns.
package lexer

import (
	"xcsc/internal/markup/token"
)

// Options configures a single Lex run.
type Options struct {
	// StartOffset is added to every emitted token offset.
	StartOffset int
	// SkipToTag advances past any leading host bytes up to the first '<'.
	// Set by the file weaver; hybrid re-lexing inside the builder uses it
	// to keep the host prefix out of the token stream.
	SkipToTag bool
}

// Lexer drives a cursor over one markup region.
type Lexer struct {
	cursor Cursor
	base   int
	toks   []token.Token
}

// New creates a lexer over src with the given options applied.
func New(src string, opts Options) *Lexer {
	lx := &Lexer{
		cursor: NewCursor(src),
		base:   opts.StartOffset,
		toks:   make([]token.Token, 0, 16),
	}
	if opts.SkipToTag {
		for !lx.cursor.EOF() && lx.cursor.Peek() != '<' {
			lx.cursor.Bump()
		}
	}
	return lx
}

// Lex scans src and returns the token vector.
func Lex(src string, opts Options) []token.Token {
	lx := New(src, opts)
	lx.run(true)
	return lx.toks
}

// run is the top-level production loop. With isRoot set, structural ')' and
// ';' are skipped; without it they return control to the caller, which is how
// nested markup inside a host lambda is exited.
func (lx *Lexer) run(isRoot bool) {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '<':
			lx.scanTag()
		case '>':
			m := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.emit(token.TagClose, m)
		case '{':
			lx.scanExpression()
		case ')', ';':
			if !isRoot {
				return
			}
			lx.cursor.Bump()
		case '}':
			m := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.emit(token.Unknown, m)
		default:
			lx.scanText()
		}
	}
}

// scanText consumes a free-text run up to the next structural byte. Runs of
// pure whitespace produce no token.
func (lx *Lexer) scanText() {
	m := lx.cursor.Mark()
	blank := true
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '<' || b == '{' || b == ')' || b == ';' || b == '}' {
			break
		}
		if !isSpaceByte(b) {
			blank = false
		}
		lx.cursor.Bump()
	}
	if !blank {
		lx.emit(token.AttrName, m)
	}
}

// emit appends a token spanning from m to the current cursor position.
func (lx *Lexer) emit(kind token.Kind, m Mark) {
	lx.toks = append(lx.toks, token.Token{
		Kind:  kind,
		Start: lx.base + int(m),
		End:   lx.base + lx.cursor.off,
	})
}
