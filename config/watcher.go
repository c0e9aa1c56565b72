package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/spindexer/logging"
)

// ReloadSettle is how long a tunables file must go without events before it is re-read. A
// single save usually arrives as several events.
const ReloadSettle = 50 * time.Millisecond

// A Watcher re-reads a tunables file whenever it changes and publishes every version that
// validates. Versions that fail to read or validate are logged and skipped.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	updates chan *Tunables
	workers *goutils.StoppableWorkers
	logger  logging.Logger

	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching the file at path. Close must be called to release it.
func NewWatcher(path string, logger logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating config watcher")
	}
	// Editors often replace the file rather than write it, so watch its directory.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "watching %s", abs), fsw.Close())
	}
	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		updates: make(chan *Tunables, 1),
		logger:  logger,
	}
	w.workers = goutils.NewBackgroundStoppableWorkers(w.watch)
	return w, nil
}

// Updates returns the channel new tunables are published on. It holds at most the newest
// version not yet received.
func (w *Watcher) Updates() <-chan *Tunables {
	return w.updates
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. No reload runs after it returns.
func (w *Watcher) Close() error {
	w.workers.Stop()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) watch(ctx context.Context) {
	debounced := debounce.New(ReloadSettle)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounced(w.reload)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		}
	}
}

// reload runs on the debounce timer's goroutine.
func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	t, err := Read(w.path)
	if err != nil {
		w.logger.Warnw("ignoring config change", "path", w.path, "error", err)
		return
	}
	w.logger.Infow("config changed", "path", w.path)
	w.publish(t)
}

// publish replaces any version the consumer has not picked up yet.
func (w *Watcher) publish(t *Tunables) {
	for {
		select {
		case w.updates <- t:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}
