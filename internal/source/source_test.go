package source

import (
	"testing"
)

func TestLineColResolution(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.xcs", []byte("abc\ndef\nghi"))
	file := fs.Get(id)

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{2, LineCol{Line: 1, Col: 3}},
		{3, LineCol{Line: 1, Col: 4}}, // the newline belongs to its line
		{4, LineCol{Line: 2, Col: 1}},
		{6, LineCol{Line: 2, Col: 3}},
		{8, LineCol{Line: 3, Col: 1}},
		{10, LineCol{Line: 3, Col: 3}},
	}
	for _, c := range cases {
		if got := file.ResolveOffset(c.off); got != c.want {
			t.Fatalf("ResolveOffset(%d) = %+v, want %+v", c.off, got, c.want)
		}
	}
}

func TestLineColSingleLine(t *testing.T) {
	if got := LineColAt([]byte("hello"), 3); got != (LineCol{Line: 1, Col: 4}) {
		t.Fatalf("got %+v", got)
	}
}

func TestCRLFNormalization(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed || string(out) != "a\nb\rc" {
		t.Fatalf("out = %q, changed = %v", out, changed)
	}
}

func TestBOMRemoval(t *testing.T) {
	out, had := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if !had || string(out) != "x" {
		t.Fatalf("out = %q, had = %v", out, had)
	}
}

func TestAddKeepsLatestInIndex(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("a.xcs", []byte("one"))
	id2 := fs.AddVirtual("a.xcs", []byte("two"))
	got, ok := fs.GetLatest("a.xcs")
	if !ok || got != id2 {
		t.Fatalf("latest = %v, %v", got, ok)
	}
	if string(fs.Get(got).Content) != "two" {
		t.Fatalf("content = %q", fs.Get(got).Content)
	}
}

func TestSpanHelpers(t *testing.T) {
	s := Span{File: 0, Start: 2, End: 5}
	if s.Len() != 3 || s.Empty() {
		t.Fatalf("span = %+v", s)
	}
	if !s.Contains(2) || s.Contains(5) {
		t.Fatal("half-open containment broken")
	}
	wide := s.Cover(Span{File: 0, Start: 0, End: 9})
	if wide.Start != 0 || wide.End != 9 {
		t.Fatalf("cover = %+v", wide)
	}
}
