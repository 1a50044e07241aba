package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/akolanti/docsync/internal/config"
	"github.com/akolanti/docsync/internal/domain/commonModels"
)

// Watcher re-runs a sync whenever a supported file in the source directory
// changes. Bursts of events within Debounce collapse into one run.
type Watcher struct {
	Sync     *Synchronizer
	Debounce time.Duration
	OnReport func(commonModels.SyncReport, error)
}

func NewWatcher(sync *Synchronizer, onReport func(commonModels.SyncReport, error)) *Watcher {
	return &Watcher{Sync: sync, Debounce: config.WatchDebounce, OnReport: onReport}
}

// Watch blocks until ctx is cancelled. Removing a file does not remove its chunks.
func (w *Watcher) Watch(ctx context.Context, req SyncRequest) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", commonModels.ErrIO, err)
	}
	defer fw.Close()

	if err := fw.Add(req.SourceDir); err != nil {
		return fmt.Errorf("%w: watch %s: %v", commonModels.ErrIO, req.SourceDir, err)
	}
	log := w.Sync.logger().With("collection", req.Collection, "dir", req.SourceDir)
	log.Info("watching for changes", "debounce", w.Debounce)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			report, err := w.Sync.SyncDirectory(ctx, req)
			if err != nil {
				log.Error("sync after change failed", "error", err)
			}
			if w.OnReport != nil {
				w.OnReport(report, err)
			}
		}
	}
}

func relevantEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return commonModels.KindFromPath(ev.Name) != commonModels.KindUnsupported
}
