package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/tock/internal/auth"
	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/db"
	"github.com/marcus/tock/internal/status"
	tocksync "github.com/marcus/tock/internal/sync"
)

// app wires the local store, the login and the sync orchestrator for one
// command invocation or daemon lifetime.
type app struct {
	db       *db.DB
	deviceID string
	auth     *auth.Client
	sync     *tocksync.Orchestrator
}

// openApp opens the database in the data dir. Sync status goes to sink.
func openApp(sink status.Sink) (*app, error) {
	database, err := db.Open(getDataDir())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Without a device id login and sync fail with a clear message, while
	// local commands keep working.
	deviceID, err := crypto.DeviceID()
	if err != nil {
		slog.Warn("device id", "err", err)
		deviceID = ""
	}

	authClient := auth.New(database, deviceID, auth.HTTPDialer)
	orch := tocksync.New(tocksync.Deps{
		Tasks:     database.Tasks(),
		Shortcuts: database.Shortcuts(),
		Todos:     database.Todos(),
		Settings:  database,
		Auth:      authClient,
		Dial:      tocksync.HTTPTransport,
		Sink:      sink,
		DeviceID:  deviceID,
	})

	return &app{db: database, deviceID: deviceID, auth: authClient, sync: orch}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// DeleteTask, DeleteShortcut, DeleteTodo and Logout implement alert.Actions.

func (a *app) DeleteTask(_ context.Context, uid string) error {
	return a.db.Tasks().SoftDelete(uid, time.Now())
}

func (a *app) DeleteShortcut(_ context.Context, uid string) error {
	return a.db.Shortcuts().SoftDelete(uid, time.Now())
}

func (a *app) DeleteTodo(_ context.Context, uid string) error {
	return a.db.Todos().SoftDelete(uid, time.Now())
}

func (a *app) Logout(ctx context.Context) error {
	return a.auth.Logout(ctx)
}
