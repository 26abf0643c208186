// Package sync reconciles the local record store with the sync server.
//
// One attempt gathers the local delta, encrypts it, exchanges it with the
// server (refreshing the access token once on 401), applies the remote delta
// with last-write-wins, re-sends any records the server reports missing in at
// most one extra round, and finally advances the watermark.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marcus/tock/internal/auth"
	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/status"
	"github.com/marcus/tock/internal/syncclient"
)

// maxOrphanRounds bounds the follow-up exchanges for orphaned records.
const maxOrphanRounds = 1

// Orchestrator runs sync attempts. At most one attempt is in flight; callers
// that arrive while one runs share its result.
type Orchestrator struct {
	deps  Deps
	group singleflight.Group

	mu           gosync.Mutex
	transportURL string
	transport    Transport
}

// New creates an orchestrator. Missing Sink, Dial and Now get defaults.
func New(deps Deps) *Orchestrator {
	if deps.Sink == nil {
		deps.Sink = status.Discard
	}
	if deps.Dial == nil {
		deps.Dial = HTTPTransport
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

// LoggedIn reports whether credentials are stored.
func (o *Orchestrator) LoggedIn() bool {
	creds, err := o.deps.Settings.GetCredentials()
	return err == nil && creds != nil
}

// Sync runs one attempt, or waits for the attempt already in flight, and
// reports the outcome to the status sink.
func (o *Orchestrator) Sync(ctx context.Context) (Result, error) {
	v, err, shared := o.group.Do("sync", func() (any, error) {
		return o.run(ctx)
	})
	if shared {
		slog.Debug("sync: joined in-flight attempt")
	}
	res, _ := v.(Result)
	return res, err
}

func (o *Orchestrator) run(ctx context.Context) (Result, error) {
	sink := o.deps.Sink
	sink.Positive(status.Syncing)

	start := time.Now()
	res, err := o.attempt(ctx)
	if err != nil {
		if errors.Is(err, ErrCredentialsChanged) {
			slog.Info("sync: discarded result after credential change")
		} else {
			slog.Warn("sync: failed", "err", err)
		}
		sink.Negative(StatusMessage(err))
		return res, err
	}

	if res.Dropped > 0 {
		slog.Warn("sync: records not sent", "dropped", res.Dropped)
	}
	if res.Failed > 0 {
		slog.Warn("sync: remote records not stored", "failed", res.Failed)
	}
	slog.Info("sync: done", "sent", res.Sent, "inserted", res.Inserted, "updated", res.Updated,
		"skipped", res.Skipped, "failed", res.Failed, "orphan_rounds", res.OrphanRounds, "took", time.Since(start))
	sink.Positive(fmt.Sprintf("sync successful: %d records", res.Count()))
	return res, nil
}

// cycle is the per-attempt state threaded through the exchange.
type cycle struct {
	creds     *models.Credentials
	token     string
	refreshed bool
	key       []byte
	gen       int64
	transport Transport
}

func (o *Orchestrator) attempt(ctx context.Context) (Result, error) {
	var res Result

	if o.deps.DeviceID == "" {
		return res, crypto.ErrDeviceDerivation
	}

	creds, err := o.deps.Settings.GetCredentials()
	if err != nil {
		return res, fmt.Errorf("%w: load credentials: %v", ErrPersistence, err)
	}
	if creds == nil {
		return res, auth.ErrNotLoggedIn
	}

	gen, err := o.deps.Settings.CredentialGeneration()
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	key, err := crypto.UnwrapKey(o.deps.DeviceID, creds.EncryptedKey, creds.KeyNonce)
	if err != nil {
		return res, err
	}

	st, err := o.deps.Settings.GetSyncSettings()
	if err != nil {
		return res, fmt.Errorf("%w: load sync settings: %v", ErrPersistence, err)
	}

	transport, err := o.transportFor(creds.Server)
	if err != nil {
		return res, err
	}

	c := &cycle{creds: creds, token: creds.AccessToken, key: key, gen: gen, transport: transport}

	req, err := o.gatherDelta(st, key, &res)
	if err != nil {
		return res, err
	}

	resp, err := o.exchange(ctx, c, req, &res)
	if err != nil {
		return res, err
	}
	watermark := resp.ServerTimestamp

	for round := 0; round < maxOrphanRounds && resp.HasOrphans(); round++ {
		orphanReq, err := o.orphanRequest(resp, watermark, key, &res)
		if err != nil {
			return res, err
		}
		slog.Info("sync: resending orphans", "tasks", len(orphanReq.Tasks),
			"shortcuts", len(orphanReq.Shortcuts), "todos", len(orphanReq.Todos))

		resp, err = o.exchange(ctx, c, orphanReq, &res)
		if err != nil {
			return res, err
		}
		watermark = resp.ServerTimestamp
		res.OrphanRounds++
	}
	if resp.HasOrphans() {
		slog.Warn("sync: orphans remain after resend",
			"tasks", len(resp.OrphanedTasks), "shortcuts", len(resp.OrphanedShortcuts), "todos", len(resp.OrphanedTodos))
	}

	if err := o.deps.Settings.SetSyncWatermark(watermark, false); err != nil {
		return res, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	res.ServerTimestamp = watermark
	return res, nil
}

func (o *Orchestrator) gatherDelta(st *models.SyncSettings, key []byte, res *Result) (*syncclient.SyncRequest, error) {
	tasks, d1, err := gather[models.Task](o.deps.Tasks, st, key, models.EntityTask)
	if err != nil {
		return nil, err
	}
	shortcuts, d2, err := gather[models.Shortcut](o.deps.Shortcuts, st, key, models.EntityShortcut)
	if err != nil {
		return nil, err
	}
	todos, d3, err := gather[models.Todo](o.deps.Todos, st, key, models.EntityTodo)
	if err != nil {
		return nil, err
	}
	res.Dropped += d1 + d2 + d3

	return &syncclient.SyncRequest{
		LastSync:  st.LastSync,
		DeviceID:  o.deps.DeviceID,
		Tasks:     tasks,
		Shortcuts: shortcuts,
		Todos:     todos,
	}, nil
}

func (o *Orchestrator) orphanRequest(resp *syncclient.SyncResponse, watermark int64, key []byte, res *Result) (*syncclient.SyncRequest, error) {
	tasks, d1, err := resend[models.Task](o.deps.Tasks, resp.OrphanedTasks, key, models.EntityTask)
	if err != nil {
		return nil, err
	}
	shortcuts, d2, err := resend[models.Shortcut](o.deps.Shortcuts, resp.OrphanedShortcuts, key, models.EntityShortcut)
	if err != nil {
		return nil, err
	}
	todos, d3, err := resend[models.Todo](o.deps.Todos, resp.OrphanedTodos, key, models.EntityTodo)
	if err != nil {
		return nil, err
	}
	res.Dropped += d1 + d2 + d3

	return &syncclient.SyncRequest{
		LastSync:  watermark,
		DeviceID:  o.deps.DeviceID,
		Tasks:     tasks,
		Shortcuts: shortcuts,
		Todos:     todos,
	}, nil
}

// exchange transmits req, checks that the login did not change meanwhile,
// and applies the remote delta.
func (o *Orchestrator) exchange(ctx context.Context, c *cycle, req *syncclient.SyncRequest, res *Result) (*syncclient.SyncResponse, error) {
	resp, err := o.transmit(ctx, c, req)
	if err != nil {
		return nil, err
	}
	res.Sent += len(req.Tasks) + len(req.Shortcuts) + len(req.Todos)

	gen, err := o.deps.Settings.CredentialGeneration()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if gen != c.gen {
		return nil, ErrCredentialsChanged
	}

	o.apply(resp, c.key, res)
	return resp, nil
}

// transmit sends one request. A 401 triggers one token refresh and one
// retry per attempt; a second 401 or a rejected refresh purges the login.
func (o *Orchestrator) transmit(ctx context.Context, c *cycle, req *syncclient.SyncRequest) (*syncclient.SyncResponse, error) {
	if !c.refreshed && auth.AccessTokenExpired(c.token, o.deps.Now()) {
		if err := o.refresh(ctx, c); err != nil {
			return nil, err
		}
	}

	resp, err := c.transport.Sync(ctx, c.token, req)
	if !errors.Is(err, syncclient.ErrUnauthorized) {
		return resp, err
	}

	if c.refreshed {
		o.purge(ctx, c.creds)
		return nil, fmt.Errorf("%w: %v", ErrReauthenticate, err)
	}
	if err := o.refresh(ctx, c); err != nil {
		return nil, err
	}

	resp, err = c.transport.Sync(ctx, c.token, req)
	if errors.Is(err, syncclient.ErrUnauthorized) {
		o.purge(ctx, c.creds)
		return nil, fmt.Errorf("%w: %v", ErrReauthenticate, err)
	}
	return resp, err
}

func (o *Orchestrator) refresh(ctx context.Context, c *cycle) error {
	c.refreshed = true
	token, err := o.deps.Auth.Refresh(ctx, c.creds)
	if errors.Is(err, auth.ErrTokenRefresh) {
		o.purge(ctx, c.creds)
		return fmt.Errorf("%w: %v", ErrReauthenticate, err)
	}
	if err != nil {
		return err
	}
	c.token = token
	return nil
}

func (o *Orchestrator) purge(ctx context.Context, creds *models.Credentials) {
	if err := o.deps.Auth.Purge(ctx, creds); err != nil {
		slog.Error("sync: purge credentials", "err", err)
	}
}

func (o *Orchestrator) apply(resp *syncclient.SyncResponse, key []byte, res *Result) {
	res.add(reconcile[models.Task](o.deps.Tasks, resp.Tasks, key, models.EntityTask))
	res.add(reconcile[models.Shortcut](o.deps.Shortcuts, resp.Shortcuts, key, models.EntityShortcut))
	res.add(reconcile[models.Todo](o.deps.Todos, resp.Todos, key, models.EntityTodo))
}

// transportFor reuses the transport while the server URL is unchanged so
// its circuit breaker state carries across attempts.
func (o *Orchestrator) transportFor(serverURL string) (Transport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.transport != nil && o.transportURL == serverURL {
		return o.transport, nil
	}
	t, err := o.deps.Dial(serverURL)
	if err != nil {
		return nil, err
	}
	o.transport, o.transportURL = t, serverURL
	return t, nil
}
