package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"xcsc/internal/project"
	"xcsc/internal/transform"
)

// Writer persists derived files under <root>/Generated/, mirroring the
// source tree, with the msgpack map sidecar next to each.
type Writer struct {
	root   string
	logger *zap.SugaredLogger
}

// NewWriter creates a writer rooted at the workspace directory.
func NewWriter(root string, logger *zap.SugaredLogger) *Writer {
	return &Writer{root: root, logger: logger}
}

// DerivedPath maps a source path to its derived counterpart:
// <root>/Generated/<rel> with the source extension replaced.
func (w *Writer) DerivedPath(sourcePath string) string {
	rel, err := filepath.Rel(w.root, sourcePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(sourcePath)
	}
	rel = strings.TrimSuffix(rel, project.SourceExt) + project.HostExt
	return filepath.Join(w.root, project.GeneratedDir, rel)
}

// Write persists the payload atomically (write-to-temp, then rename) and
// drops the map sidecar beside it, stamped with the source hash so a later
// run can reuse it. It returns the derived path.
func (w *Writer) Write(p *transform.Payload, sourceHash [32]byte) (string, error) {
	target := w.DerivedPath(p.File)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	if err := writeAtomic(target, []byte(p.Content)); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := writeSidecar(target, p, sourceHash); err != nil {
		// The derived file is already in place; a stale sidecar only costs
		// a re-transform on the next load.
		w.logger.Warnw("map sidecar write failed", "target", target, "error", err)
	}
	return target, nil
}

// Remove deletes the derived counterpart of a source file, plus its sidecar.
func (w *Writer) Remove(sourcePath string) error {
	target := w.DerivedPath(sourcePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", target, err)
	}
	if err := os.Remove(sidecarPath(target)); err != nil && !os.IsNotExist(err) {
		w.logger.Warnw("sidecar remove failed", "target", target, "error", err)
	}
	return nil
}

func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
