package diag_test

import (
	"strings"
	"testing"

	"xcsc/internal/diag"
	"xcsc/internal/project"
	"xcsc/internal/transform"
)

const attrSource = `var e = (<btn onclick={H}/>);`

func transformed(t *testing.T, src string) *transform.Payload {
	t.Helper()
	weaver := transform.NewWeaver("Document", "CreateElement")
	payload, _ := weaver.Transform("test.xcs", src)
	return payload
}

func translate(t *testing.T, src string, d diag.Downstream, suppressed project.Suppressions) (diag.Diagnostic, bool) {
	t.Helper()
	p := transformed(t, src)
	tr := diag.NewTranslator(suppressed)
	return tr.Translate(diag.TranslateInput{
		Diag:       d,
		Derived:    p.Content,
		Maps:       p.SourceMaps,
		SourcePath: "test.xcs",
		Source:     src,
	})
}

func TestValueDiagnosticProjectsExactly(t *testing.T) {
	p := transformed(t, attrSource)
	hOff := strings.Index(p.Content, "Onclick = H") + len("Onclick = ")
	got, ok := translate(t, attrSource, diag.Downstream{
		File:        "Generated/test.cs",
		StartOffset: hOff,
		Length:      1,
		Code:        "CS0103",
		Severity:    diag.SevError,
		Message:     "The name 'H' does not exist",
	}, nil)
	if !ok {
		t.Fatal("diagnostic dropped")
	}
	wantStart := strings.Index(attrSource, "{H}") + 1
	if got.StartOffset != wantStart || got.EndOffset != wantStart+1 {
		t.Fatalf("projected range [%d,%d), want [%d,%d)",
			got.StartOffset, got.EndOffset, wantStart, wantStart+1)
	}
	if attrSource[got.StartOffset:got.EndOffset] != "H" {
		t.Fatalf("projected slice = %q", attrSource[got.StartOffset:got.EndOffset])
	}
}

func TestPropsContainerWidensToTagName(t *testing.T) {
	p := transformed(t, attrSource)
	propsOff := strings.Index(p.Content, "BtnProps")
	got, ok := translate(t, attrSource, diag.Downstream{
		StartOffset: propsOff,
		Length:      8,
		Code:        "CS0246",
		Severity:    diag.SevError,
		Message:     "The type or namespace 'BtnProps' could not be found",
	}, nil)
	if !ok {
		t.Fatal("diagnostic dropped")
	}
	if attrSource[got.StartOffset:got.EndOffset] != "<btn" {
		t.Fatalf("projected slice = %q", attrSource[got.StartOffset:got.EndOffset])
	}
}

func TestSuppressedCodeDropped(t *testing.T) {
	suppressed := project.Suppressions{"CS8019": {}}
	_, ok := translate(t, attrSource, diag.Downstream{
		StartOffset: 0,
		Length:      1,
		Code:        "CS8019",
		Severity:    diag.SevWarning,
	}, suppressed)
	if ok {
		t.Fatal("suppressed diagnostic survived")
	}
}

func TestOffsetPastAllMappingsUsesPreceding(t *testing.T) {
	p := transformed(t, attrSource)
	got, ok := translate(t, attrSource, diag.Downstream{
		StartOffset: len(p.Content) + 40,
		Length:      1,
		Code:        "CS1002",
		Severity:    diag.SevError,
		Message:     "; expected",
	}, nil)
	if !ok {
		t.Fatal("diagnostic dropped")
	}
	if got.StartOffset > len(attrSource) {
		t.Fatalf("projected offset %d out of range", got.StartOffset)
	}
}

func TestLineColComputed(t *testing.T) {
	src := "int a;\nvar e = (<p/>);\n"
	p := transformed(t, src)
	pOff := strings.Index(p.Content, `"p"`)
	tr := diag.NewTranslator(nil)
	got, ok := tr.Translate(diag.TranslateInput{
		Diag:       diag.Downstream{StartOffset: pOff, Length: 3, Code: "CS0000", Severity: diag.SevError},
		Derived:    p.Content,
		Maps:       p.SourceMaps,
		SourcePath: "test.xcs",
		Source:     src,
	})
	if !ok {
		t.Fatal("diagnostic dropped")
	}
	if got.Start.Line != 2 {
		t.Fatalf("line = %d, want 2", got.Start.Line)
	}
}
