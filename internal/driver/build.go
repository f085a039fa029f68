// Package driver runs whole-workspace operations: the one-shot build and
// the in-memory self-test behind --dev.
package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"xcsc/internal/project"
	"xcsc/internal/workspace"
)

// BuildResult describes one transformed file.
type BuildResult struct {
	Path    string
	Derived string
	Maps    int
	Reused  bool // derived file and sidecar were already up to date
}

// Build transforms every source file under root, one worker per file up to
// the CPU count. A file whose sidecar still matches the source on disk is
// reloaded instead of re-transformed. Per-file transformations share no
// mutable state, so order across files is unspecified; the result list is
// sorted by path.
func Build(ctx context.Context, coord *workspace.Coordinator, root string, logger *zap.SugaredLogger) ([]BuildResult, error) {
	files, err := listSourceFiles(root)
	if err != nil {
		return nil, err
	}

	results := make([]BuildResult, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			payload, reused, err := coord.ReuseOrTransform(path)
			if err != nil {
				return err
			}
			results[i] = BuildResult{
				Path:    path,
				Derived: coord.Writer().DerivedPath(path),
				Maps:    len(payload.SourceMaps),
				Reused:  reused,
			}
			logger.Debugw("built", "source", path, "reused", reused)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// listSourceFiles returns every transformable source under root, sorted,
// skipping Generated/ and dot directories.
func listSourceFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == project.GeneratedDir || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, project.SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
