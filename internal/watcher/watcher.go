// file: internal/watcher/watcher.go
// version: 3.0.1
// guid: b2c3d4e5-f6a7-8901-bcde-f23456789012

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebounce is the default debounce period.
const DefaultDebounce = 5 * time.Second

// Callback is invoked after the debounce period with the root directory.
type Callback func(rootDir string)

// Options configures a Watcher.
type Options struct {
	// Extensions are the audio file extensions that trigger the callback,
	// with leading dot. Matching is case-insensitive.
	Extensions []string
	Debounce   time.Duration
}

// Watcher monitors a directory tree for audio file changes and invokes a
// callback once events have settled. Callbacks never overlap.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	rootDir    string
	extensions []string
	debounce   time.Duration
	callback   Callback
	logger     hclog.Logger
	stop       chan struct{}
	stopped    chan struct{}
	mu         sync.Mutex
	timer      *time.Timer
	running    bool
	runMu      sync.Mutex
}

// New creates a Watcher. A zero Debounce uses DefaultDebounce.
func New(callback Callback, opts Options, logger hclog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	exts := make([]string, len(opts.Extensions))
	for i, ext := range opts.Extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &Watcher{
		extensions: exts,
		debounce:   opts.Debounce,
		callback:   callback,
		logger:     logger.Named("watcher"),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start begins watching rootDir recursively. Calling it again is a no-op.
func (w *Watcher) Start(rootDir string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsw
	w.rootDir = rootDir

	if err := w.addRecursive(rootDir); err != nil {
		fsw.Close()
		return err
	}

	go w.eventLoop()
	w.logger.Info("watching for new files", "dir", rootDir, "debounce", w.debounce)
	return nil
}

// Watch runs the watcher until ctx is done.
func (w *Watcher) Watch(ctx context.Context, rootDir string) error {
	if err := w.Start(rootDir); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit. A
// callback already running is allowed to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stop)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	<-w.stopped

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.runMu.Lock()
	w.runMu.Unlock()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible dirs
		}
		if d.IsDir() {
			if watchErr := w.fsWatcher.Add(path); watchErr != nil {
				w.logger.Warn("cannot watch directory", "dir", path, "error", watchErr)
			}
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories are watched too; files copied in with them count.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
			w.scheduleScan()
			return
		}
	}

	relevant := event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0
	if !relevant || !w.IsAudioFile(event.Name) {
		return
	}
	w.logger.Trace("audio file changed", "path", event.Name, "op", event.Op.String())
	w.scheduleScan()
}

func (w *Watcher) scheduleScan() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		running := w.running
		w.mu.Unlock()
		if !running || w.callback == nil {
			return
		}

		w.runMu.Lock()
		defer w.runMu.Unlock()
		// Stop may have run while this scan waited for the previous one.
		w.mu.Lock()
		running = w.running
		w.mu.Unlock()
		if !running {
			return
		}
		w.logger.Debug("changes settled", "dir", w.rootDir)
		w.callback(w.rootDir)
	})
}

// IsAudioFile reports whether name has one of the watched extensions.
func (w *Watcher) IsAudioFile(name string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(name)))
}
