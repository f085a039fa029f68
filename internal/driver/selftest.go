package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"xcsc/internal/diag"
	"xcsc/internal/lsp"
	"xcsc/internal/sourcemap"
	"xcsc/internal/transform"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Border(lipgloss.RoundedBorder())
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

type selfCheck struct {
	name   string
	source string
	verify func(p *transform.Payload) error
}

// SelfTest runs the embedded pipeline checks and returns a styled report.
// ok is false when any check failed.
func SelfTest(factory, method string) (string, bool) {
	weaver := transform.NewWeaver(factory, method)
	checks := selfChecks(factory, method)

	var b strings.Builder
	b.WriteString(titleStyle.Render("xcsc self-test"))
	b.WriteByte('\n')

	ok := true
	for _, c := range checks {
		payload, _ := weaver.Transform("selftest/"+c.name+".xcs", c.source)
		err := verifyInvariants(payload)
		if err == nil && c.verify != nil {
			err = c.verify(payload)
		}
		if err != nil {
			ok = false
			b.WriteString(failStyle.Render(fmt.Sprintf("FAIL %-24s %v", c.name, err)))
		} else {
			b.WriteString(passStyle.Render(fmt.Sprintf("ok   %s", c.name)))
		}
		b.WriteByte('\n')
	}

	if err := checkDiagnosticProjection(weaver); err != nil {
		ok = false
		b.WriteString(failStyle.Render(fmt.Sprintf("FAIL %-24s %v", "diagnostic-projection", err)))
	} else {
		b.WriteString(passStyle.Render("ok   diagnostic-projection"))
	}
	b.WriteByte('\n')

	return b.String(), ok
}

// checkDiagnosticProjection injects a fake downstream compiler through the
// server's hook type and runs its diagnostic through the translator,
// asserting the range lands exactly on the offending identifier.
func checkDiagnosticProjection(weaver *transform.Weaver) error {
	src := `var e = (<btn onclick={Missing}/>);`
	payload, _ := weaver.Transform("selftest/diagnostics.xcs", src)

	fake := lsp.DownstreamFunc(func(_ context.Context, p *transform.Payload, derivedPath string) []diag.Downstream {
		off := strings.Index(p.Content, "Missing")
		if off < 0 {
			return nil
		}
		return []diag.Downstream{{
			File:        derivedPath,
			StartOffset: off,
			Length:      len("Missing"),
			Code:        "CS0103",
			Severity:    diag.SevError,
			Message:     "The name 'Missing' does not exist in the current context",
		}}
	})

	raw := fake(context.Background(), payload, "selftest/Generated/diagnostics.cs")
	if len(raw) == 0 {
		return fmt.Errorf("fake downstream produced no diagnostics")
	}
	translator := diag.NewTranslator(nil)
	for _, d := range raw {
		got, ok := translator.Translate(diag.TranslateInput{
			Diag:       d,
			Derived:    payload.Content,
			Maps:       payload.SourceMaps,
			SourcePath: payload.File,
			Source:     src,
		})
		if !ok {
			return fmt.Errorf("diagnostic dropped by translator")
		}
		if got.StartOffset >= got.EndOffset || got.EndOffset > len(src) ||
			src[got.StartOffset:got.EndOffset] != "Missing" {
			return fmt.Errorf("projected to %q, want %q",
				src[got.StartOffset:got.EndOffset], "Missing")
		}
	}
	return nil
}

func selfChecks(factory, method string) []selfCheck {
	call := factory + "." + method + "("
	expect := func(substrings ...string) func(p *transform.Payload) error {
		return func(p *transform.Payload) error {
			for _, want := range substrings {
				if !strings.Contains(p.Content, want) {
					return fmt.Errorf("derived text missing %q", want)
				}
			}
			return nil
		}
	}
	return []selfCheck{
		{
			name:   "plain-element",
			source: `class C { var e = (<div/>); }`,
			verify: expect(call, `"div"`, "new DivProps()"),
		},
		{
			name:   "expression-attribute",
			source: `var e = (<btn onclick={H}/>);`,
			verify: expect(call, `"btn"`, "Onclick = H"),
		},
		{
			name:   "nested-children",
			source: `var e = (<div>hello<span/></div>);`,
			verify: expect(`"hello"`, `"span"`),
		},
		{
			name:   "lambda-markup",
			source: `var e = (<ul>{xs.Map(x => <li/>)}</ul>);`,
			verify: expect(`"ul"`, "xs.Map(x =>", `"li"`),
		},
		{
			name:   "pure-host",
			source: `class C { int x = (1 < 2) ? 3 : 4; }`,
			verify: func(p *transform.Payload) error {
				if p.Content != `class C { int x = (1 < 2) ? 3 : 4; }` {
					return fmt.Errorf("pure host file was altered")
				}
				return nil
			},
		},
	}
}

// verifyInvariants asserts the universal map properties: total coverage of
// the derived text and monotone ordering by transformed start.
func verifyInvariants(p *transform.Payload) error {
	if len(p.SourceMaps) == 0 {
		return fmt.Errorf("no map entries")
	}
	covered := 0
	prevStart := -1
	for _, e := range p.SourceMaps {
		if e.TransformedStart < prevStart {
			return fmt.Errorf("entries not ordered by transformed start")
		}
		prevStart = e.TransformedStart
		if e.TransformedEnd > covered {
			if e.TransformedStart > covered {
				return fmt.Errorf("coverage gap at %d", covered)
			}
			covered = e.TransformedEnd
		}
	}
	if covered < len(p.Content) {
		return fmt.Errorf("derived bytes %d..%d unmapped", covered, len(p.Content))
	}
	if _, ok := sourcemap.Lookup(p.SourceMaps, 0); !ok && len(p.Content) > 0 {
		return fmt.Errorf("reverse lookup undefined at 0")
	}
	return nil
}
