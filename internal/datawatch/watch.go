// Package datawatch bridges external edits of the data directory into
// change events. The original static-site workflow edits creatures.json
// and lore.json directly on disk; watching the directory keeps connected
// editor pages current without polling.
package datawatch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Callback receives the changed document name ("creatures", "art",
// "lore") after a debounced write.
type Callback func(doc string)

const debounce = 200 * time.Millisecond

// Watch observes dir for JSON document writes until ctx is cancelled.
// Events are debounced per document so a tmp-write-rename cycle fires
// once.
func Watch(ctx context.Context, dir string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("datawatch: started", slog.String("dir", dir))

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(doc string) {
		pending[doc] = true
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("datawatch: stopped")
			return nil

		case <-timerCh:
			for doc := range pending {
				logger.Debug("datawatch: document changed", slog.String("doc", doc))
				if cb != nil {
					cb(doc)
				}
				delete(pending, doc)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}
			schedule(strings.TrimSuffix(name, ".json"))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("datawatch: error", slog.String("error", watchErr.Error()))
		}
	}
}
