package workspace

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"xcsc/internal/project"
	"xcsc/internal/source"
	"xcsc/internal/transform"
)

// Coordinator binds the transform core to change events. It owns the
// debouncer, the processing gate, the metadata store, and the observer
// table; per-file transformations run independently on timer goroutines.
type Coordinator struct {
	root     string
	weaver   *transform.Weaver
	store    *Store
	writer   *Writer
	gate     *Gate
	debounce *Debouncer
	logger   *zap.SugaredLogger

	overlayMu sync.RWMutex
	overlay   map[string]string // editor buffers, by normalized path

	obsMu     sync.RWMutex
	observers []func(*transform.Payload)
}

// NewCoordinator wires the change pipeline for one workspace root.
func NewCoordinator(root string, manifest project.Manifest, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		root:     root,
		weaver:   transform.NewWeaver(manifest.Generator.Factory, manifest.Generator.Method),
		store:    NewStore(),
		writer:   NewWriter(root, logger),
		gate:     NewGate(),
		debounce: NewDebouncer(manifest.Debounce()),
		logger:   logger,
		overlay:  make(map[string]string),
	}
}

// Store exposes the metadata map for diagnostic translation.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Writer exposes the derived-file writer.
func (c *Coordinator) Writer() *Writer {
	return c.writer
}

// OnFileTransformed registers an observer for successful transforms.
// Observers run on the transforming goroutine, after the derived file hit
// disk and before the gate releases.
func (c *Coordinator) OnFileTransformed(fn func(*transform.Payload)) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// Eligible reports whether a path participates in transformation: the
// source extension, outside Generated/.
func (c *Coordinator) Eligible(path string) bool {
	if !strings.HasSuffix(path, project.SourceExt) {
		return false
	}
	norm := source.NormalizePath(path)
	return !strings.Contains(norm, "/"+project.GeneratedDir+"/") &&
		!strings.HasPrefix(norm, project.GeneratedDir+"/")
}

// SetOverlay stores the in-memory buffer for a path, taking precedence over
// the disk content.
func (c *Coordinator) SetOverlay(path, content string) {
	c.overlayMu.Lock()
	defer c.overlayMu.Unlock()
	c.overlay[source.NormalizePath(path)] = content
}

// DropOverlay removes the buffer for a path.
func (c *Coordinator) DropOverlay(path string) {
	c.overlayMu.Lock()
	defer c.overlayMu.Unlock()
	delete(c.overlay, source.NormalizePath(path))
}

func (c *Coordinator) contentFor(path string) (string, error) {
	c.overlayMu.RLock()
	text, ok := c.overlay[source.NormalizePath(path)]
	c.overlayMu.RUnlock()
	if ok {
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// FileChanged is the debounced entry point. Events for an in-flight path are
// dropped; otherwise the path's timer restarts and the transform runs once
// the path has been quiet for the debounce interval.
func (c *Coordinator) FileChanged(path string) {
	if !c.Eligible(path) {
		return
	}
	if c.gate.InFlight(path) {
		return
	}
	c.debounce.Trigger(path, func() {
		c.runTransform(path)
	})
}

// FileRemoved drops shadow state and deletes the derived counterpart.
func (c *Coordinator) FileRemoved(path string) {
	if !c.Eligible(path) {
		return
	}
	c.debounce.Cancel(path)
	c.DropOverlay(path)
	c.store.Remove(path)
	if err := c.writer.Remove(path); err != nil {
		c.logger.Errorw("derived delete failed", "source", path, "error", err)
	}
}

// TransformNow runs the pipeline synchronously, bypassing debounce and gate.
// The one-shot build driver uses it; metadata and observers update the same
// way as on the event path.
func (c *Coordinator) TransformNow(path string) (*transform.Payload, error) {
	content, err := c.contentFor(path)
	if err != nil {
		return nil, err
	}
	payload := c.transformAndPersist(path, content)
	if payload == nil {
		return nil, fmt.Errorf("transform %s: derived write failed", path)
	}
	return payload, nil
}

// ReuseOrTransform rebuilds shadow state from the map sidecar when the
// derived file on disk still matches this exact source, skipping the
// pipeline; otherwise it transforms. The reused flag reports which path ran.
func (c *Coordinator) ReuseOrTransform(path string) (payload *transform.Payload, reused bool, err error) {
	content, err := c.contentFor(path)
	if err != nil {
		return nil, false, err
	}
	target := c.writer.DerivedPath(path)
	if sc, derived, ok := LoadSidecar(target); ok && sc.SourceHash == sha256.Sum256([]byte(content)) {
		payload = &transform.Payload{
			File:       path,
			Content:    string(derived),
			SourceMaps: sc.Maps,
		}
		c.store.Put(path, &FileMetadata{
			TargetPath:         target,
			TransformedContent: payload.Content,
			SourceMaps:         sc.Maps,
		})
		c.logger.Debugw("sidecar reused", "source", path, "derived", target)
		return payload, true, nil
	}
	payload = c.transformAndPersist(path, content)
	if payload == nil {
		return nil, false, fmt.Errorf("transform %s: derived write failed", path)
	}
	return payload, false, nil
}

func (c *Coordinator) runTransform(path string) {
	if !c.gate.Acquire(path) {
		return
	}
	defer c.gate.Release(path)

	start := time.Now()
	content, err := c.contentFor(path)
	if err != nil {
		c.logger.Errorw("source read failed", "source", path, "error", err)
		return
	}
	if payload := c.transformAndPersist(path, content); payload != nil {
		c.logger.Infow("file transformed",
			"source", path,
			"derived", c.writer.DerivedPath(path),
			"maps", len(payload.SourceMaps),
			"elapsed", time.Since(start),
		)
	}
}

// transformAndPersist is the FileParsed -> FileTransformed leg shared by the
// event path and TransformNow.
func (c *Coordinator) transformAndPersist(path, content string) *transform.Payload {
	payload, unbalanced := c.weaver.Transform(path, content)
	for _, off := range unbalanced {
		lc := source.LineColAt([]byte(content), uint32(off)) //nolint:gosec // offset from scanner, in range
		c.logger.Warnw("markup region has no balanced close paren; skipped",
			"source", path, "line", lc.Line, "col", lc.Col)
	}

	target, err := c.writer.Write(payload, sha256.Sum256([]byte(content)))
	if err != nil {
		// Discard the result; the gate's release lets the next change retry.
		c.logger.Errorw("derived write failed", "source", path, "error", err)
		return nil
	}

	c.store.Put(path, &FileMetadata{
		TargetPath:         target,
		TransformedContent: payload.Content,
		SourceMaps:         payload.SourceMaps,
	})

	c.obsMu.RLock()
	observers := make([]func(*transform.Payload), len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()
	for _, fn := range observers {
		fn(payload)
	}
	return payload
}

// Close stops pending debounce timers.
func (c *Coordinator) Close() {
	c.debounce.CancelAll()
}

// RelPath renders a workspace-relative path for logs.
func (c *Coordinator) RelPath(path string) string {
	if rel, err := filepath.Rel(c.root, path); err == nil {
		return rel
	}
	return path
}
