package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/logging"
)

// Watcher reloads a validator's config when the shapes file changes.
// A file that fails to parse leaves the previous config active.
type Watcher struct {
	path      string
	validator *Validator
	watcher   *fsnotify.Watcher
	log       zerolog.Logger
	onReload  func(Config, error)

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadHook is called after every reload attempt.
func WithReloadHook(fn func(Config, error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watch starts watching path. The directory is watched rather than the file
// so editors that replace the file on save are picked up.
func Watch(path string, v *Validator, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolve shapes path: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:      abs,
		validator: v,
		watcher:   fw,
		log:       logging.Component("validation"),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("shapes_watch_error")
		}
	}
}

func (w *Watcher) reload() {
	// Truncate-then-write saves show up as an empty file first, and
	// rename-based saves briefly leave no file at all.
	info, err := os.Stat(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		w.log.Debug().Str("path", w.path).Msg("shapes_file_missing")
		return
	}
	if err == nil && info.Size() == 0 {
		return
	}
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("shapes_reload_failed")
	} else {
		w.validator.SetConfig(cfg)
		w.log.Info().Str("path", w.path).Int("shapes", len(cfg.Shapes)).Msg("shapes_reloaded")
	}
	if w.onReload != nil {
		w.onReload(cfg, err)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
