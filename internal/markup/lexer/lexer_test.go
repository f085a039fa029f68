package lexer_test

import (
	"testing"

	"xcsc/internal/markup/lexer"
	"xcsc/internal/markup/token"
)

func lexAll(input string) []token.Token {
	return lexer.Lex(input, lexer.Options{})
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func sameKinds(t *testing.T, got []token.Token, want []token.Kind) {
	t.Helper()
	gotKinds := kinds(got)
	if len(gotKinds) != len(want) {
		t.Fatalf("token kinds = %v, want %v", gotKinds, want)
	}
	for i := range want {
		if gotKinds[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (all: %v)", i, gotKinds[i], want[i], gotKinds)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	if toks := lexAll(""); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}

func TestSelfClosingTag(t *testing.T) {
	toks := lexAll("<t/>")
	sameKinds(t, toks, []token.Kind{token.TagOpen, token.TagName, token.TagClose})
	if toks[1].Text("<t/>", 0) != "t" {
		t.Fatalf("tag name = %q", toks[1].Text("<t/>", 0))
	}
	if close := toks[2]; !close.IsSelfClose() || close.End != 4 {
		t.Fatalf("close token = %+v", close)
	}
}

func TestOpenCloseTagPair(t *testing.T) {
	input := "<div></div>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.TagOpen, token.TagName, token.TagClose,
	})
	if !toks[3].IsClosingTagOpen() {
		t.Fatalf("expected closing TagOpen, got %+v", toks[3])
	}
	if toks[4].Text(input, 0) != "div" {
		t.Fatalf("closing tag name = %q", toks[4].Text(input, 0))
	}
}

func TestFreeTextRun(t *testing.T) {
	input := "<p>hello</p>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.AttrName,
		token.TagOpen, token.TagName, token.TagClose,
	})
	if toks[3].Text(input, 0) != "hello" {
		t.Fatalf("text token = %q", toks[3].Text(input, 0))
	}
}

func TestWhitespaceOnlyTextDropped(t *testing.T) {
	toks := lexAll("<p>   </p>")
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.TagOpen, token.TagName, token.TagClose,
	})
}

func TestQuotedAttributeWithEscapedQuote(t *testing.T) {
	input := `<t key="a\"b"/>`
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName,
		token.AttrName, token.AttrEquals, token.AttrString,
		token.TagClose,
	})
	if got := toks[4].Text(input, 0); got != `"a\"b"` {
		t.Fatalf("attribute value token = %q, want %q", got, `"a\"b"`)
	}
}

func TestExpressionAttribute(t *testing.T) {
	input := "<btn onclick={H}/>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName,
		token.AttrName, token.AttrEquals, token.AttrExpression,
		token.TagClose,
	})
	if got := toks[4].Text(input, 0); got != "{H}" {
		t.Fatalf("expression token = %q", got)
	}
}

func TestBareExpressionChild(t *testing.T) {
	input := "<div>{x + 1}</div>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.AttrExpression,
		token.TagOpen, token.TagName, token.TagClose,
	})
	if got := toks[3].Text(input, 0); got != "{x + 1}" {
		t.Fatalf("expression token = %q", got)
	}
}

func TestLambdaBridge(t *testing.T) {
	input := "{xs.map(x => <p/>)}"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.AttrExpression, token.LParen,
		token.AttrName,
		token.TagOpen, token.TagName, token.TagClose,
		token.AttrExpression,
	})
	if got := toks[0].Text(input, 0); got != "{xs.map" {
		t.Fatalf("head = %q", got)
	}
	if got := toks[6].Text(input, 0); got != ")}" {
		t.Fatalf("tail = %q", got)
	}
}

func TestNestedBracesStayOneExpression(t *testing.T) {
	input := "<div>{ new { a = 1 } }</div>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.AttrExpression,
		token.TagOpen, token.TagName, token.TagClose,
	})
	if got := toks[3].Text(input, 0); got != "{ new { a = 1 } }" {
		t.Fatalf("expression token = %q", got)
	}
}

func TestUnterminatedExpressionEmitsNothing(t *testing.T) {
	toks := lexAll("<div>{oops</div>")
	// The brace expression runs off the region; no AttrExpression appears.
	for _, tok := range toks {
		if tok.Kind == token.AttrExpression {
			t.Fatalf("unexpected AttrExpression in %v", kinds(toks))
		}
	}
}

func TestStartOffsetShiftsTokens(t *testing.T) {
	toks := lexer.Lex("<t/>", lexer.Options{StartOffset: 100})
	if toks[0].Start != 100 || toks[0].End != 101 {
		t.Fatalf("TagOpen span = [%d,%d)", toks[0].Start, toks[0].End)
	}
}

func TestSkipToTagDropsHostPrefix(t *testing.T) {
	toks := lexer.Lex("return <p/>;", lexer.Options{SkipToTag: true})
	sameKinds(t, toks, []token.Kind{token.TagOpen, token.TagName, token.TagClose})
}

func TestStructuralStopAtRootIsSkipped(t *testing.T) {
	input := "<a/>;<b/>"
	toks := lexAll(input)
	sameKinds(t, toks, []token.Kind{
		token.TagOpen, token.TagName, token.TagClose,
		token.TagOpen, token.TagName, token.TagClose,
	})
}
