package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marcus/tock/internal/db"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	tocksync "github.com/marcus/tock/internal/sync"
	"github.com/marcus/tock/internal/syncconfig"
	"github.com/marcus/tock/internal/watch"
)

// inlineSyncTimeout bounds the sync a mutating command runs when no daemon is up.
const inlineSyncTimeout = 10 * time.Second

// mutatingCommands lists commands that modify local data and should trigger auto-sync.
var mutatingCommands = map[string]bool{
	"task add":     true,
	"task edit":    true,
	"task rm":      true,
	"shortcut add": true,
	"shortcut use": true,
	"shortcut rm":  true,
	"todo add":     true,
	"todo done":    true,
	"todo rm":      true,
	// A fresh login has to pull everything the account already holds.
	"auth login":   true,
}

// isMutatingCommand checks if the given command path triggers auto-sync.
func isMutatingCommand(name string) bool {
	return mutatingCommands[name]
}

// AutoSyncEnabled returns true if auto-sync is enabled.
// Checks TOCK_SYNC_AUTO, then config. Defaults to true.
func AutoSyncEnabled() bool {
	return syncconfig.GetAutoSyncEnabled()
}

// afterMutation tells a running daemon about the change through the marker
// file. Without a daemon it runs a short sync inline. Errors are logged, not
// returned.
func afterMutation(ctx context.Context) {
	dir := getDataDir()
	if dir == "" {
		return
	}
	if err := watch.MarkChanged(dir); err != nil {
		slog.Debug("autosync: mark changed", "err", err)
	}

	if !AutoSyncEnabled() || db.DaemonRunning(dir) {
		return
	}

	a, err := openApp(status.Discard)
	if err != nil {
		slog.Debug("autosync: open app", "err", err)
		return
	}
	defer a.Close()

	if !a.sync.LoggedIn() {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, inlineSyncTimeout)
	defer cancel()

	res, err := a.sync.Sync(ctx)
	if err != nil {
		slog.Debug("autosync: sync", "err", err)
		if errors.Is(err, tocksync.ErrReauthenticate) {
			output.Warning("sync: %s", tocksync.MsgReauthenticate)
		}
		return
	}
	slog.Debug("autosync: synced", "records", res.Count())
}
