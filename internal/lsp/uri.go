package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath converts a file URI to a local path: scheme stripped, percent
// escapes decoded, Windows drive forms repaired, result canonicalized.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	path := uri
	switch {
	case strings.HasPrefix(uri, "file://"):
		path = uri[len("file://"):]
	case strings.HasPrefix(uri, "file:"):
		path = uri[len("file:"):]
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	// "/C:/..." -> "C:/...".
	if len(path) >= 3 && path[0] == '/' && isDriveLetter(path[1]) && path[2] == ':' {
		path = path[1:]
	}
	// A doubled drive prefix sneaks in when a client concatenates an
	// already-absolute path; keep the substring from the last ":\".
	if idx := strings.LastIndex(path, `:\`); idx > 1 {
		path = path[idx-1:]
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// pathToURI converts a local path to a file URI.
func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
