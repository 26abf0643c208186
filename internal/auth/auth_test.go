package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/syncclient"
)

type memStore struct {
	creds         *models.Credentials
	needsFullSync bool
	deletes       int
	storeErr      error
}

func (m *memStore) GetCredentials() (*models.Credentials, error) {
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

func (m *memStore) StoreCredentials(c *models.Credentials) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	cp := *c
	m.creds = &cp
	m.needsFullSync = true
	return nil
}

func (m *memStore) UpdateAccessToken(email, token string) error {
	if m.creds == nil || m.creds.Email != email {
		return errors.New("no such user")
	}
	m.creds.AccessToken = token
	return nil
}

func (m *memStore) DeleteCredentials() error {
	m.creds = nil
	m.deletes++
	return nil
}

type fakeServer struct {
	loginReq   syncclient.LoginRequest
	loginErr   error
	refreshErr error
	logoutErr  error
	logouts    int
	refreshes  int
}

func (f *fakeServer) Login(ctx context.Context, req syncclient.LoginRequest) (*syncclient.LoginResponse, error) {
	f.loginReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &syncclient.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeServer) Refresh(ctx context.Context, req syncclient.RefreshRequest) (*syncclient.RefreshResponse, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &syncclient.RefreshResponse{AccessToken: "access-new"}, nil
}

func (f *fakeServer) Logout(ctx context.Context, accessToken, deviceID string) error {
	f.logouts++
	return f.logoutErr
}

func newTestClient(store *memStore, srv *fakeServer) *Client {
	return New(store, "device-1", func(string) (Server, error) { return srv, nil })
}

func TestLoginStoresWrappedKey(t *testing.T) {
	store := &memStore{}
	srv := &fakeServer{}
	c := newTestClient(store, srv)

	if err := c.Login(context.Background(), " Ann@Example.com", "hunter2", "https://sync.example.com/"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if store.creds == nil {
		t.Fatal("credentials not stored")
	}
	if store.creds.Server != "https://sync.example.com" {
		t.Errorf("server not normalized: %q", store.creds.Server)
	}
	if store.creds.Email != "ann@example.com" {
		t.Errorf("email not normalized: %q", store.creds.Email)
	}
	if !store.needsFullSync {
		t.Error("login must force a full sync")
	}
	if c.State() != LoggedIn {
		t.Errorf("state: got %v, want logged in", c.State())
	}

	dataKey := crypto.DeriveDataKey("hunter2", "ann@example.com")
	if srv.loginReq.EncryptionKey != crypto.Verifier(dataKey) {
		t.Error("login should send the key verifier")
	}
	if srv.loginReq.DeviceID != "device-1" {
		t.Errorf("device id: got %q", srv.loginReq.DeviceID)
	}

	key, err := crypto.UnwrapKey("device-1", store.creds.EncryptedKey, store.creds.KeyNonce)
	if err != nil {
		t.Fatalf("UnwrapKey: %v", err)
	}
	if string(key) != string(dataKey) {
		t.Error("stored key does not unwrap to the data key")
	}
}

func TestLoginStoreFailureLeavesLoggedOut(t *testing.T) {
	store := &memStore{storeErr: errors.New("database is locked")}
	c := newTestClient(store, &fakeServer{})

	err := c.Login(context.Background(), "ann@example.com", "hunter2", "https://sync.example.com")
	if err == nil {
		t.Fatal("expected the store error")
	}
	if c.State() != LoggedOut {
		t.Errorf("state: got %v, want logged out", c.State())
	}
	if store.creds != nil || store.needsFullSync {
		t.Error("nothing should be persisted")
	}
}

func TestLoginInvalidServerURL(t *testing.T) {
	c := newTestClient(&memStore{}, &fakeServer{})
	err := c.Login(context.Background(), "a@b.c", "pw", "sync.example.com")
	if !errors.Is(err, syncclient.ErrInvalidServerURL) {
		t.Fatalf("expected ErrInvalidServerURL, got %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	store := &memStore{}
	srv := &fakeServer{loginErr: &syncclient.APIError{Status: http.StatusUnauthorized}}
	c := newTestClient(store, srv)

	err := c.Login(context.Background(), "a@b.c", "pw", "https://s")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if store.creds != nil {
		t.Fatal("no credentials should be stored on failure")
	}
	if c.State() != LoggedOut {
		t.Fatalf("state: got %v", c.State())
	}
}

func TestLoginNetworkErrorIsNotAuthError(t *testing.T) {
	srv := &fakeServer{loginErr: syncclient.ErrNetwork}
	c := newTestClient(&memStore{}, srv)

	err := c.Login(context.Background(), "a@b.c", "pw", "https://s")
	if errors.Is(err, ErrAuth) || !errors.Is(err, syncclient.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestRefreshPersistsToken(t *testing.T) {
	store := &memStore{creds: &models.Credentials{Email: "a@b.c", AccessToken: "old", RefreshToken: "r", Server: "https://s"}}
	c := newTestClient(store, &fakeServer{})

	creds, _ := store.GetCredentials()
	token, err := c.Refresh(context.Background(), creds)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if token != "access-new" || store.creds.AccessToken != "access-new" || creds.AccessToken != "access-new" {
		t.Fatalf("token not persisted: %q / %q", token, store.creds.AccessToken)
	}
}

func TestRefreshRejected(t *testing.T) {
	store := &memStore{creds: &models.Credentials{Email: "a@b.c", RefreshToken: "r", Server: "https://s"}}
	c := newTestClient(store, &fakeServer{refreshErr: &syncclient.APIError{Status: http.StatusUnauthorized}})

	creds, _ := store.GetCredentials()
	_, err := c.Refresh(context.Background(), creds)
	if !errors.Is(err, ErrTokenRefresh) {
		t.Fatalf("expected ErrTokenRefresh, got %v", err)
	}
}

func TestRefreshNetworkFailureKeepsCause(t *testing.T) {
	store := &memStore{creds: &models.Credentials{Email: "a@b.c", RefreshToken: "r", Server: "https://s"}}
	c := newTestClient(store, &fakeServer{refreshErr: syncclient.ErrNetwork})

	creds, _ := store.GetCredentials()
	_, err := c.Refresh(context.Background(), creds)
	if errors.Is(err, ErrTokenRefresh) || !errors.Is(err, syncclient.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestLogoutPurgesEvenWhenServerFails(t *testing.T) {
	store := &memStore{creds: &models.Credentials{Email: "a@b.c", Server: "https://s"}}
	srv := &fakeServer{logoutErr: syncclient.ErrNetwork}
	c := newTestClient(store, srv)

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.creds != nil || store.deletes != 1 {
		t.Fatal("credentials should be purged")
	}
	if srv.logouts != 1 {
		t.Fatalf("server logout calls: got %d, want 1", srv.logouts)
	}
	if c.State() != LoggedOut {
		t.Fatalf("state: got %v", c.State())
	}
}

func TestLogoutWhenLoggedOut(t *testing.T) {
	srv := &fakeServer{}
	c := newTestClient(&memStore{}, srv)
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if srv.logouts != 0 {
		t.Fatal("no server call expected without credentials")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	now := time.Now()
	sign := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
		s, err := tok.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}

	if !AccessTokenExpired(sign(now.Add(-time.Minute)), now) {
		t.Error("past exp should be expired")
	}
	if AccessTokenExpired(sign(now.Add(time.Hour)), now) {
		t.Error("future exp should not be expired")
	}
	if AccessTokenExpired("opaque-token", now) {
		t.Error("opaque tokens are never treated as expired")
	}
}

func TestStateDerivedFromStore(t *testing.T) {
	store := &memStore{creds: &models.Credentials{Email: "a@b.c", AccessToken: "opaque"}}
	c := newTestClient(store, &fakeServer{})
	if c.State() != LoggedIn {
		t.Fatalf("state: got %v, want logged in", c.State())
	}
}
