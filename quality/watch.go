package quality

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a manifest must be quiet after a change
// before it is reloaded. Saves that truncate and then write the file land
// inside one window.
const DefaultSettleDelay = 50 * time.Millisecond

// ManifestWatcher reloads a manifest file whenever it changes on disk and
// delivers the parsed table on Updates. Only the newest table is kept if
// the consumer falls behind. Files that are empty or fail to parse are
// skipped.
type ManifestWatcher struct {
	path    string
	settle  time.Duration
	watcher *fsnotify.Watcher
	updates chan Table
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	log     *slog.Logger
}

// WatchManifest starts watching path. The parent directory is watched so
// editors that replace the file on save are picked up.
func WatchManifest(path string, log *slog.Logger) (*ManifestWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest path %q: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(abs), err)
	}
	if log == nil {
		log = slog.Default()
	}

	mw := &ManifestWatcher{
		path:    abs,
		settle:  DefaultSettleDelay,
		watcher: w,
		updates: make(chan Table, 1),
		done:    make(chan struct{}),
		log:     log.With("component", "manifest-watcher", "path", abs),
	}
	mw.wg.Add(1)
	go mw.run()
	return mw, nil
}

// Updates delivers freshly loaded tables.
func (mw *ManifestWatcher) Updates() <-chan Table {
	return mw.updates
}

func (mw *ManifestWatcher) run() {
	defer mw.wg.Done()

	settle := time.NewTimer(mw.settle)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	for {
		select {
		case <-mw.done:
			return
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != mw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settle.Reset(mw.settle)
		case <-settle.C:
			mw.reload()
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.log.Warn("Watcher error", "error", err)
		}
	}
}

func (mw *ManifestWatcher) reload() {
	info, err := os.Stat(mw.path)
	if err != nil {
		mw.log.Warn("Manifest reload failed", "error", err)
		return
	}
	if info.Size() == 0 {
		mw.log.Debug("Manifest empty, waiting for content")
		return
	}
	table, err := LoadManifest(mw.path)
	if err != nil {
		mw.log.Warn("Manifest reload failed", "error", err)
		return
	}
	mw.log.Info("Manifest reloaded")
	mw.publish(table)
}

// publish replaces any undelivered table with t.
func (mw *ManifestWatcher) publish(t Table) {
	for {
		select {
		case mw.updates <- t:
			return
		default:
		}
		select {
		case <-mw.updates:
		default:
		}
	}
}

// Close stops the watcher goroutine. Calls after the first are no-ops.
func (mw *ManifestWatcher) Close() error {
	var err error
	mw.once.Do(func() {
		close(mw.done)
		err = mw.watcher.Close()
		mw.wg.Wait()
	})
	return err
}
