package workspace

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"xcsc/internal/project"
	"xcsc/internal/sourcemap"
	"xcsc/internal/transform"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	root := t.TempDir()
	manifest := project.Default()
	manifest.Server.DebounceMS = 30
	c := NewCoordinator(root, manifest, testLogger())
	t.Cleanup(c.Close)
	return c
}

func TestDebounceCoalescing(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var runs atomic.Int32
	fn := func() { runs.Add(1) }

	d.Trigger("a.xcs", fn)
	time.Sleep(10 * time.Millisecond)
	d.Trigger("a.xcs", fn)
	time.Sleep(10 * time.Millisecond)
	d.Trigger("a.xcs", fn)

	time.Sleep(120 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}

	d.Trigger("a.xcs", fn)
	time.Sleep(120 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("runs = %d, want 2", got)
	}
}

func TestDebounceCancel(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var runs atomic.Int32
	d.Trigger("a.xcs", func() { runs.Add(1) })
	d.Cancel("a.xcs")
	time.Sleep(80 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatal("cancelled timer still fired")
	}
}

func TestGateDropsWhileInFlight(t *testing.T) {
	g := NewGate()
	if !g.Acquire("a.xcs") {
		t.Fatal("first acquire failed")
	}
	if g.Acquire("a.xcs") {
		t.Fatal("second acquire should fail while in flight")
	}
	if !g.InFlight("a.xcs") {
		t.Fatal("path should be in flight")
	}
	g.Release("a.xcs")
	if !g.Acquire("a.xcs") {
		t.Fatal("acquire after release failed")
	}
}

func TestStoreReplaceAndTargetIndex(t *testing.T) {
	s := NewStore()
	s.Put("src/a.xcs", &FileMetadata{TargetPath: "Generated/src/a.cs"})
	s.Put("src/a.xcs", &FileMetadata{
		TargetPath: "Generated/src/a.cs",
		SourceMaps: []sourcemap.Entry{{OriginalEnd: 1, TransformedEnd: 1}},
	})
	meta, ok := s.Get("src/a.xcs")
	if !ok || len(meta.SourceMaps) != 1 {
		t.Fatalf("meta = %+v, %v", meta, ok)
	}
	src, _, ok := s.GetByTarget("Generated/src/a.cs")
	if !ok || src != "src/a.xcs" {
		t.Fatalf("target lookup = %q, %v", src, ok)
	}
	if _, ok := s.Remove("src/a.xcs"); !ok {
		t.Fatal("remove failed")
	}
	if _, _, ok := s.GetByTarget("Generated/src/a.cs"); ok {
		t.Fatal("target index survived removal")
	}
}

func TestDerivedPathLayout(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, testLogger())
	src := filepath.Join(root, "pages", "home.xcs")
	want := filepath.Join(root, "Generated", "pages", "home.cs")
	if got := w.DerivedPath(src); got != want {
		t.Fatalf("derived path = %q, want %q", got, want)
	}
}

func TestWriterRoundTripWithSidecar(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, testLogger())
	src := filepath.Join(root, "a.xcs")
	payload := &transform.Payload{
		File:    src,
		Content: "derived text",
		SourceMaps: []sourcemap.Entry{
			{OriginalEnd: 12, TransformedEnd: 12},
		},
	}
	srcHash := sha256.Sum256([]byte("source text"))
	target, err := w.Write(payload, srcHash)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "derived text" {
		t.Fatalf("derived content = %q", data)
	}

	sidecar, derived, ok := LoadSidecar(target)
	if !ok {
		t.Fatal("sidecar did not load")
	}
	if string(derived) != "derived text" {
		t.Fatalf("sidecar derived = %q", derived)
	}
	if len(sidecar.Maps) != 1 || sidecar.Maps[0].OriginalEnd != 12 {
		t.Fatalf("sidecar maps = %v", sidecar.Maps)
	}
	if sidecar.SourceHash != srcHash {
		t.Fatal("source hash not persisted")
	}

	if err := w.Remove(src); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("derived file still present after remove")
	}
}

func TestSidecarRejectsStaleContent(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, testLogger())
	src := filepath.Join(root, "a.xcs")
	target, err := w.Write(&transform.Payload{File: src, Content: "v1"}, sha256.Sum256([]byte("s")))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := LoadSidecar(target); ok {
		t.Fatal("sidecar validated against tampered content")
	}
}

func TestReuseOrTransform(t *testing.T) {
	c := testCoordinator(t)
	src := filepath.Join(c.root, "page.xcs")
	if err := os.WriteFile(src, []byte(`var e = (<div/>);`), 0o644); err != nil {
		t.Fatal(err)
	}

	first, reused, err := c.ReuseOrTransform(src)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Fatal("first build cannot reuse")
	}

	// Same source again: the sidecar satisfies the build without the
	// pipeline, and the store sees the same shadow state.
	second, reused, err := c.ReuseOrTransform(src)
	if err != nil {
		t.Fatal(err)
	}
	if !reused {
		t.Fatal("unchanged source should reuse the sidecar")
	}
	if second.Content != first.Content || len(second.SourceMaps) != len(first.SourceMaps) {
		t.Fatalf("reused payload differs: %+v vs %+v", second, first)
	}
	if meta, ok := c.Store().Get(src); !ok || meta.TransformedContent != first.Content {
		t.Fatalf("store not refreshed from sidecar: %+v, %v", meta, ok)
	}

	// Changed source invalidates the sidecar.
	if err := os.WriteFile(src, []byte(`var e = (<span/>);`), 0o644); err != nil {
		t.Fatal(err)
	}
	third, reused, err := c.ReuseOrTransform(src)
	if err != nil {
		t.Fatal(err)
	}
	if reused {
		t.Fatal("changed source must re-transform")
	}
	if !strings.Contains(third.Content, `"span"`) {
		t.Fatalf("third content = %q", third.Content)
	}
}

func TestEligibility(t *testing.T) {
	c := testCoordinator(t)
	cases := map[string]bool{
		"a.xcs":               true,
		"sub/b.xcs":           true,
		"a.cs":                false,
		"Generated/a.xcs":     false,
		"sub/Generated/b.xcs": false,
	}
	for path, want := range cases {
		if got := c.Eligible(path); got != want {
			t.Fatalf("Eligible(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestTransformNowWritesDerived(t *testing.T) {
	c := testCoordinator(t)
	src := filepath.Join(c.root, "page.xcs")
	if err := os.WriteFile(src, []byte(`var e = (<div/>);`), 0o644); err != nil {
		t.Fatal(err)
	}
	payload, err := c.TransformNow(src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(payload.Content, "Document.CreateElement(") {
		t.Fatalf("payload content = %q", payload.Content)
	}
	derived := c.Writer().DerivedPath(src)
	if _, err := os.Stat(derived); err != nil {
		t.Fatal(err)
	}
	meta, ok := c.Store().Get(src)
	if !ok || meta.TargetPath != derived {
		t.Fatalf("meta = %+v, %v", meta, ok)
	}
}

func TestChangeEventPipeline(t *testing.T) {
	c := testCoordinator(t)
	src := filepath.Join(c.root, "page.xcs")

	var transformedCount atomic.Int32
	c.OnFileTransformed(func(p *transform.Payload) {
		transformedCount.Add(1)
	})

	c.SetOverlay(src, `var e = (<p/>);`)
	c.FileChanged(src)
	c.FileChanged(src)
	c.FileChanged(src)

	deadline := time.Now().Add(2 * time.Second)
	for transformedCount.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := transformedCount.Load(); got != 1 {
		t.Fatalf("transform ran %d times, want 1", got)
	}

	// The derived file landed and, once the transforming goroutine returns
	// (observers run before the gate releases), the gate is idle again.
	if _, err := os.Stat(c.Writer().DerivedPath(src)); err != nil {
		t.Fatal(err)
	}
	for c.gate.InFlight(src) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if c.gate.InFlight(src) {
		t.Fatal("gate not released")
	}
}

func TestFileRemovedDeletesDerived(t *testing.T) {
	c := testCoordinator(t)
	src := filepath.Join(c.root, "page.xcs")
	c.SetOverlay(src, `var e = (<p/>);`)
	if _, err := c.TransformNow(src); err != nil {
		t.Fatal(err)
	}
	derived := c.Writer().DerivedPath(src)
	if _, err := os.Stat(derived); err != nil {
		t.Fatal(err)
	}

	c.FileRemoved(src)
	if _, err := os.Stat(derived); !os.IsNotExist(err) {
		t.Fatal("derived file survived source removal")
	}
	if _, ok := c.Store().Get(src); ok {
		t.Fatal("metadata survived source removal")
	}
}
