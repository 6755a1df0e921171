package geoip

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called with a freshly opened *Engine each time a watcher
// successfully reopens the database file. The receiver *Engine is never
// mutated and remains valid to use; a reopen failure is logged and
// counted but does not invoke the callback, since there is no new engine
// to hand it.
type ReloadFunc func(engine *Engine)

// Watch starts an fsnotify-based watcher on the directory containing the
// engine's open file, reloading whenever that file is written to or
// replaced (e.g. by a rename-into-place deploy). on is called with the
// replacement engine after each successful reload. Watch replaces any
// previously running watcher on e; if on is nil, it only stops that
// watcher and starts none.
//
// Grounded on the corpus's fsnotify usage for config/file hot-reload:
// watch the parent directory rather than the file itself, since editors
// and deploy tools commonly replace a file via rename, which most
// platforms stop delivering events for if the original inode is watched
// directly.
func (e *Engine) Watch(on ReloadFunc) (err error) {
	e.cancelWatch()
	if on == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	path := e.DatabaseInfo().Path
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()

		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.watchCancel = cancel

	go e.runFSWatch(ctx, watcher, base, on)

	return nil
}

func (e *Engine) runFSWatch(ctx context.Context, watcher *fsnotify.Watcher, base string, on ReloadFunc) {
	defer func() {
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(ev.Name) != base {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			e.reload(ctx, on)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}

			e.logger.Warn("watch error", "path", e.DatabaseInfo().Path, "error", watchErr)
		}
	}
}

// WatchPoll starts a ticker-based watcher that reloads whenever the
// database file's modification time advances, checking every interval.
// It is a coarser, more portable fallback for filesystems where
// fsnotify's events are unreliable (network mounts, some container
// overlays). WatchPoll replaces any previously running watcher on e.
//
// Grounded directly on this corpus's earlier-generation GeoIP reload
// loop, which polled os.Stat().ModTime() on a fixed ticker rather than
// relying on filesystem events.
func (e *Engine) WatchPoll(interval time.Duration, on ReloadFunc) (err error) {
	e.cancelWatch()

	path := e.DatabaseInfo().Path

	fi, err := os.Stat(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.watchCancel = cancel

	go e.runPollWatch(ctx, path, interval, fi.ModTime(), on)

	return nil
}

func (e *Engine) runPollWatch(ctx context.Context, path string, interval time.Duration, lastMod time.Time, on ReloadFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last atomic.Value
	last.Store(lastMod)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fi, err := os.Stat(path)
			if err != nil {
				e.logger.Warn("poll stat failed", "path", path, "error", err)

				continue
			}

			if !fi.ModTime().After(last.Load().(time.Time)) {
				continue
			}

			last.Store(fi.ModTime())
			e.reload(ctx, on)
		}
	}
}

// reload reopens the database file at e's path as a brand-new *Engine,
// over the same mode, logger, and metrics sink, and hands it to on. e
// itself is never modified; a failed reopen is logged and counted and
// leaves e serving its existing, still-valid state. Mirrors the
// original's updateCallback.update(new LookupService(dbInfo.path,
// dbType)): the watcher produces a replacement, it never patches the
// one it's watching.
func (e *Engine) reload(ctx context.Context, on ReloadFunc) {
	path := e.DatabaseInfo().Path

	next, err := Open(path, e.mode, WithLogger(e.logger), WithMetrics(e.metrics))
	if err != nil {
		e.metrics.HandleWatchReload(ctx, path, err)
		e.logger.Error("reload failed", "path", path, "error", err)

		return
	}

	e.metrics.HandleWatchReload(ctx, path, nil)
	e.logger.Info("reloaded geoip database", "path", path, "type", next.info.Type)

	if on != nil {
		on(next)
	}
}

// cancelWatch stops any watcher started with Watch or WatchPoll. It is
// safe to call when none is running.
func (e *Engine) cancelWatch() {
	if e.watchCancel != nil {
		e.watchCancel()
		e.watchCancel = nil
	}
}
