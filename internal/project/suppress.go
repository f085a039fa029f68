package project

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
)

// Suppressions is the set of downstream compiler error codes to drop.
type Suppressions map[string]struct{}

// Has reports whether the code is suppressed.
func (s Suppressions) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// projectFile mirrors the XML shape of a host project file far enough to
// reach the NoWarn nodes directly under its top-level PropertyGroup
// elements; NoWarn nodes nested anywhere else are not read.
type projectFile struct {
	PropertyGroups []struct {
		NoWarn []string `xml:"NoWarn"`
	} `xml:"PropertyGroup"`
}

// LoadSuppressions finds the nearest *.csproj at or above dir and reads its
// NoWarn set. Entries split on ';' and ','; numeric entries normalize to
// CS<digits>. A missing or unreadable project file yields an empty set.
func LoadSuppressions(dir string) Suppressions {
	out := make(Suppressions)
	path, ok := findProjectFile(dir)
	if !ok {
		return out
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	var proj projectFile
	if err := xml.Unmarshal(data, &proj); err != nil {
		return out
	}
	for _, group := range proj.PropertyGroups {
		for _, raw := range group.NoWarn {
			for _, entry := range splitCodes(raw) {
				out[normalizeCode(entry)] = struct{}{}
			}
		}
	}
	return out
}

func findProjectFile(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.csproj"))
		if len(matches) > 0 {
			return matches[0], true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func splitCodes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ','
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// normalizeCode turns bare numeric codes into the CS-prefixed form.
func normalizeCode(code string) string {
	if code == "" {
		return code
	}
	if code[0] >= '0' && code[0] <= '9' {
		return "CS" + code
	}
	return code
}
