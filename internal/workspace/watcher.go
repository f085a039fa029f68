package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"xcsc/internal/project"
)

// WatchEngine feeds file-system events into the coordinator. Directories are
// watched recursively, Generated/ excluded so derived writes never loop back
// even if the gate were to miss them.
type WatchEngine struct {
	coord   *Coordinator
	watcher *fsnotify.Watcher
	logger  *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatchEngine creates a watch engine over the coordinator's workspace.
func NewWatchEngine(coord *Coordinator, logger *zap.SugaredLogger) (*WatchEngine, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WatchEngine{
		coord:   coord,
		watcher: watcher,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start registers the directory tree and begins dispatching events.
func (e *WatchEngine) Start() error {
	if err := e.addTree(e.coord.root); err != nil {
		return err
	}
	e.wg.Add(1)
	go e.loop()
	e.logger.Infow("watch engine started", "root", e.coord.root)
	return nil
}

// Stop shuts the engine down and waits for the event loop.
func (e *WatchEngine) Stop() {
	e.cancel()
	_ = e.watcher.Close()
	e.wg.Wait()
}

func (e *WatchEngine) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return e.watcher.Add(path)
	})
}

func (e *WatchEngine) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handle(event)
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Warnw("watch error", "error", err)
		}
	}
}

func (e *WatchEngine) handle(event fsnotify.Event) {
	name := event.Name
	if strings.Contains(filepath.ToSlash(name), "/"+project.GeneratedDir+"/") {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if !skipDir(filepath.Base(name)) {
				if err := e.addTree(name); err != nil {
					e.logger.Warnw("watch add failed", "dir", name, "error", err)
				}
			}
			return
		}
		e.coord.FileChanged(name)
	case event.Op.Has(fsnotify.Write):
		e.coord.FileChanged(name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		e.coord.FileRemoved(name)
	}
}

func skipDir(name string) bool {
	return name == project.GeneratedDir || strings.HasPrefix(name, ".")
}
