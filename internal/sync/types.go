package sync

import (
	"context"
	"time"

	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/status"
	"github.com/marcus/tock/internal/syncclient"
)

// Repository is the local store contract for one record type.
type Repository[T any] interface {
	Insert(rec *T) error
	Update(rec *T) error
	Exists(uid string) (bool, error)
	FetchByUID(uid string) (*T, error)
	FetchSince(since int64) ([]T, error)
	FetchAll() ([]T, error)
	FetchByUIDs(uids []string) ([]T, error)
	SoftDelete(uid string, at time.Time) error
}

// SettingsStore holds the watermark and the login.
type SettingsStore interface {
	GetSyncSettings() (*models.SyncSettings, error)
	SetSyncWatermark(lastSync int64, needsFullSync bool) error
	CredentialGeneration() (int64, error)
	GetCredentials() (*models.Credentials, error)
}

// Authenticator refreshes tokens and purges credentials.
type Authenticator interface {
	Refresh(ctx context.Context, creds *models.Credentials) (string, error)
	Purge(ctx context.Context, creds *models.Credentials) error
}

// Transport carries one sync exchange.
type Transport interface {
	Sync(ctx context.Context, accessToken string, req *syncclient.SyncRequest) (*syncclient.SyncResponse, error)
}

// TransportDialer returns a Transport for a server URL.
type TransportDialer func(serverURL string) (Transport, error)

// HTTPTransport dials the real sync server.
func HTTPTransport(serverURL string) (Transport, error) {
	c, err := syncclient.New(serverURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Deps is everything a sync attempt touches.
type Deps struct {
	Tasks     Repository[models.Task]
	Shortcuts Repository[models.Shortcut]
	Todos     Repository[models.Todo]
	Settings  SettingsStore
	Auth      Authenticator
	Dial      TransportDialer
	Sink      status.Sink
	DeviceID  string
	Now       func() time.Time
}

// Result summarises one sync attempt.
type Result struct {
	Sent            int   // records transmitted, orphan round included
	Inserted        int   // remote records new to this device
	Updated         int   // remote records that won over a local copy
	Unchanged       int   // remote records not newer than the local copy
	Skipped         int   // remote records that failed to decrypt
	Failed          int   // remote records the local store rejected
	Dropped         int   // local records that failed to encrypt
	OrphanRounds    int   // 0 or 1
	ServerTimestamp int64 // new watermark
}

// Count is the number reported to the user.
func (r Result) Count() int {
	return r.Sent + r.Inserted + r.Updated
}

func (r *Result) add(a applyCounts) {
	r.Inserted += a.inserted
	r.Updated += a.updated
	r.Unchanged += a.unchanged
	r.Skipped += a.skipped
	r.Failed += a.failed
}

// applyCounts is the outcome of reconciling one remote batch.
type applyCounts struct {
	inserted  int
	updated   int
	unchanged int
	skipped   int
	failed    int
}
