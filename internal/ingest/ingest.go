// Package ingest watches directories for newline-delimited query-log files
// and imports them into the query log.
package ingest

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/nagare/internal/models"
	"github.com/hyperjump/nagare/internal/querylog"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches query-log drop directories and imports new files.
type Watcher struct {
	roots      []string
	extensions []string
	store      *querylog.Store
	logger     *zap.Logger
	debounce   time.Duration

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	imported    map[string]time.Time // path -> modtime at last import
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher over roots. extensions filter which files are
// imported (empty = all); imported lines are recorded via store.
func NewWatcher(roots, extensions []string, store *querylog.Store, opts ...Option) *Watcher {
	w := &Watcher{
		roots:       roots,
		extensions:  extensions,
		store:       store,
		logger:      zap.NewNop(),
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		imported:    make(map[string]time.Time),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	for _, root := range w.roots {
		if err := watcher.Add(root); err != nil {
			_ = watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	w.logger.Debug("ingest watcher starting", zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("ingest watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	path := ev.Name
	if !w.matchExtension(path) {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	w.debounceImport(ctx, path)
}

// debounceImport delays the import so half-written files settle first.
func (w *Watcher) debounceImport(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if n, err := w.ImportFile(ctx, path); err != nil {
			w.logger.Warn("query log import failed", zap.String("path", path), zap.Error(err))
		} else if n > 0 {
			w.logger.Info("query log imported", zap.String("path", path), zap.Int("queries", n))
		}
	})
}

// SyncExistingFiles imports files already present under the roots.
func (w *Watcher) SyncExistingFiles(ctx context.Context) {
	for _, root := range w.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			w.logger.Warn("ingest sync read failed", zap.String("root", root), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if !w.matchExtension(path) {
				continue
			}
			if n, err := w.ImportFile(ctx, path); err != nil {
				w.logger.Warn("query log import failed", zap.String("path", path), zap.Error(err))
			} else if n > 0 {
				w.logger.Info("query log imported", zap.String("path", path), zap.Int("queries", n))
			}
		}
	}
}

// ImportFile records every valid query line of the file. A file is skipped
// when its modtime has not changed since the last import. Returns the number
// of queries recorded.
func (w *Watcher) ImportFile(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	w.mu.Lock()
	if last, ok := w.imported[path]; ok && !info.ModTime().After(last) {
		w.mu.Unlock()
		return 0, nil
	}
	w.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cleaned, ok := models.NormalizeQuery(line)
		if !ok {
			continue
		}
		if _, err := w.store.Record(ctx, cleaned, nil); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}

	w.mu.Lock()
	w.imported[path] = info.ModTime()
	w.mu.Unlock()
	return count, nil
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.roots))
	copy(out, w.roots)
	return out
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		for _, timer := range w.debounceMap {
			timer.Stop()
		}
		w.mu.Unlock()
	})
}
