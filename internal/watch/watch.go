// Package watch tells a running daemon that the CLI changed local records.
//
// CLI commands touch a marker file in the data directory after every
// mutation; the daemon watches the directory and feeds marker events into its
// sync debouncer. The database file itself must not be watched, since the
// daemon's own sync writes would retrigger a sync.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thejerf/suture/v4"
)

// MarkerName is the file touched after local mutations.
const MarkerName = "tock.changed"

// MarkChanged records a local mutation in dir.
func MarkChanged(dir string) error {
	stamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.WriteFile(filepath.Join(dir, MarkerName), []byte(stamp), 0644); err != nil {
		return fmt.Errorf("mark changed: %w", err)
	}
	return nil
}

// Watcher calls notify whenever the marker in its directory is written.
type Watcher struct {
	dir     string
	notify  func()
	running atomic.Bool
}

// New creates a watcher for dir.
func New(dir string, notify func()) *Watcher {
	return &Watcher{dir: dir, notify: notify}
}

// Serve implements suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: watcher for %s already running", suture.ErrDoNotRestart, w.dir)
	}
	defer w.running.Store(false)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Debug("watch: started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != MarkerName {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				slog.Debug("watch: local change", "op", ev.Op.String())
				w.notify()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
	}
}

func (w *Watcher) String() string { return "change-watcher" }
