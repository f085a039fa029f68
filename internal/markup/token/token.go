package token

// Token is a value token over a markup region. Start and End are half-open
// absolute byte offsets; the token never owns its text.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the byte length of the token.
func (t Token) Len() int {
	return t.End - t.Start
}

// Text slices the token out of the backing source. base is the absolute
// offset src[0] corresponds to (the lexer's startOffset).
func (t Token) Text(src string, base int) string {
	start, end := t.Start-base, t.End-base
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}

// IsClosingTagOpen reports whether the token is the "</" form of TagOpen.
func (t Token) IsClosingTagOpen() bool {
	return t.Kind == TagOpen && t.Len() == 2
}

// IsSelfClose reports whether the token is the "/>" form of TagClose.
func (t Token) IsSelfClose() bool {
	return t.Kind == TagClose && t.Len() == 2
}
