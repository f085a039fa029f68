package lsp

import (
	"encoding/json"
	"sort"
	"strings"

	"xcsc/internal/sourcemap"
)

// wellKnownTags is the fixed completion vocabulary every document gets.
var wellKnownTags = []string{
	"div", "span", "p", "a", "ul", "ol", "li", "button", "input",
	"form", "img", "table", "tr", "td", "h1", "h2", "h3",
}

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	uri := params.TextDocument.URI
	s.mu.Lock()
	text := s.openDocs[uri]
	s.mu.Unlock()

	// Identifiers come from the cursor's mapped region: the host slice or
	// transformed region the last source map places the cursor in. Before
	// the first transform (or past the snapshot), the whole document is the
	// scope.
	scope := text
	if meta, ok := s.coord.Store().Get(uriToPath(uri)); ok {
		off := offsetForPosition(text, params.Position)
		scope = completionScope(text, off, meta.SourceMaps)
	}

	seen := make(map[string]struct{})
	items := make([]completionItem, 0, len(wellKnownTags)+16)
	for _, tag := range wellKnownTags {
		seen[tag] = struct{}{}
		items = append(items, completionItem{
			Label: tag,
			Kind:  completionKindClass,
		})
	}
	for _, ident := range documentIdents(scope) {
		if _, ok := seen[ident]; ok {
			continue
		}
		seen[ident] = struct{}{}
		items = append(items, completionItem{
			Label: ident,
			Kind:  completionKindVariable,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return s.sendResponse(msg.ID, items)
}

// completionScope slices the document down to the map region covering the
// cursor. Offsets in the map describe the last transformed snapshot, so the
// range is clamped against the live text; with no covering entry the whole
// document stays in scope.
func completionScope(text string, off int, maps []sourcemap.Entry) string {
	entry, ok := sourcemap.RegionFor(maps, off)
	if !ok {
		return text
	}
	start, end := entry.OriginalStart, entry.OriginalEnd
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return text
	}
	return text[start:end]
}

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	s.mu.Lock()
	text := s.openDocs[params.TextDocument.URI]
	s.mu.Unlock()

	off := offsetForPosition(text, params.Position)
	tag := tagAt(text, off)
	if tag == "" {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, hoverResult{
		Contents: "element `" + tag + "`",
	})
}

// documentIdents collects identifier-shaped runs from the document text.
func documentIdents(text string) []string {
	var out []string
	i := 0
	for i < len(text) {
		b := text[i]
		if isIdentStartByte(b) {
			start := i
			for i < len(text) && isIdentContinueByte(text[i]) {
				i++
			}
			out = append(out, text[start:i])
			continue
		}
		i++
	}
	return out
}

// tagAt returns the tag name when the offset sits inside "<name".
func tagAt(text string, off int) string {
	if off > len(text) {
		off = len(text)
	}
	start := off
	for start > 0 && isIdentContinueByte(text[start-1]) {
		start--
	}
	if start == 0 || text[start-1] != '<' {
		return ""
	}
	end := start
	for end < len(text) && isIdentContinueByte(text[end]) {
		end++
	}
	name := text[start:end]
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return name
}

func isIdentStartByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || (b >= '0' && b <= '9')
}
