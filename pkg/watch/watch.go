// Package watch re-runs sync when edit-source files change.
//
// Events are debounced so an editor's save burst triggers one sync. The
// same engine, and so the same writer, serves every run: a generated file
// edited by hand while watching is reported as drift rather than silently
// overwritten.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/errors"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/logging"
	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/sync"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 300 * time.Millisecond

// SyncFunc receives the result of every sync the watcher runs.
type SyncFunc func(report *sync.Report, err error)

// Watcher re-syncs a project when its edit source changes.
type Watcher struct {
	engine   *sync.Engine
	options  sync.Options
	debounce time.Duration
	onSync   SyncFunc
	logger   zerolog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRunOptions sets the options passed to every sync.
func WithRunOptions(opts sync.Options) Option {
	return func(w *Watcher) {
		w.options = opts
	}
}

// OnSync registers a callback for sync results.
func OnSync(fn SyncFunc) Option {
	return func(w *Watcher) {
		w.onSync = fn
	}
}

// New creates a Watcher for engine. The engine must work on the OS
// filesystem for events to be seen.
func New(engine *sync.Engine, opts ...Option) *Watcher {
	w := &Watcher{
		engine:   engine,
		options:  engine.DefaultOptions(),
		debounce: engine.Config().Watch.Debounce,
		logger:   logging.GetLogger("watch"),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run syncs once, then again after every debounced change, until ctx is
// cancelled. Sync failures are reported through OnSync and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to start file watcher")
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("Failed to close file watcher")
		}
	}()

	w.addWatches(fsw)
	w.sync(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Debug().Msg("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Trace().Str("path", event.Name).Str("op", event.Op.String()).Msg("Edit source changed")
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")

		case <-timer.C:
			pending = false
			w.sync(ctx)
			// new directories may have appeared
			w.addWatches(fsw)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	report, err := w.engine.Run(ctx, w.options)
	if err != nil && ctx.Err() == nil {
		w.logger.Error().Err(err).Msg("Sync failed")
	}
	if w.onSync != nil {
		w.onSync(report, err)
	}
}

// addWatches watches the project root, the static base directory of every
// edit-source pattern (recursively for ** patterns) and the directory of
// every matched file.
func (w *Watcher) addWatches(fsw *fsnotify.Watcher) {
	root := w.engine.Root()
	dirs := map[string]bool{root: true}

	for _, pattern := range w.engine.Config().EditSource {
		rel := filepath.ToSlash(pattern)
		if filepath.IsAbs(pattern) {
			if r, err := filepath.Rel(root, pattern); err == nil {
				rel = filepath.ToSlash(r)
			}
		}
		base, glob := doublestar.SplitPattern(rel)
		baseDir := filepath.Join(root, filepath.FromSlash(base))
		dirs[baseDir] = true
		if strings.Contains(glob, "**") {
			_ = filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					dirs[path] = true
				}
				return nil
			})
		}
	}

	if files, err := w.engine.Resolver().Resolve(w.engine.Config().EditSource); err == nil {
		for _, f := range files {
			dirs[filepath.Dir(f)] = true
		}
	}

	for dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug().Err(err).Str("dir", dir).Msg("Cannot watch directory")
		}
	}
}

// relevant reports whether event touches a file matched by the edit
// source.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	root := w.engine.Root()
	rel, err := filepath.Rel(root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.engine.Config().EditSource {
		p := filepath.ToSlash(pattern)
		if filepath.IsAbs(pattern) {
			if r, err := filepath.Rel(root, pattern); err == nil {
				p = filepath.ToSlash(r)
			}
		}
		p = strings.TrimPrefix(p, "./")
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
