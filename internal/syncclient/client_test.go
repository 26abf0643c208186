package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcus/tock/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://sync.example.com/", "https://sync.example.com", false},
		{"http://localhost:8080//", "http://localhost:8080", false},
		{"  https://a.b  ", "https://a.b", false},
		{"sync.example.com", "", true},
		{"ftp://sync.example.com", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeServerURL(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidServerURL) {
				t.Errorf("NormalizeServerURL(%q): expected ErrInvalidServerURL, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeServerURL(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ann@example.com" || req.DeviceID != "dev-1" || req.EncryptionKey != "verifier" {
			t.Errorf("unexpected body %+v", req)
		}
		json.NewEncoder(w).Encode(LoginResponse{AccessToken: "a", RefreshToken: "r"})
	})

	resp, err := c.Login(context.Background(), LoginRequest{Email: "ann@example.com", EncryptionKey: "verifier", DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "a" || resp.RefreshToken != "r" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSyncSendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var req SyncRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.LastSync != 100 || len(req.Tasks) != 1 || req.Tasks[0].UID != "t1" {
			t.Errorf("unexpected body %+v", req)
		}
		w.Write([]byte(`{"server_timestamp":200,"tasks":[{"encrypted_data":"x","nonce":"y","uid":"t2","last_updated":150}],"shortcuts":[],"todos":[],"orphaned_tasks":["t3"],"orphaned_shortcuts":[],"orphaned_todos":[]}`))
	})

	resp, err := c.Sync(context.Background(), "tok", &SyncRequest{
		LastSync: 100,
		DeviceID: "dev",
		Tasks:    []models.EncryptedRecord{{UID: "t1", LastUpdated: 120}},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if resp.ServerTimestamp != 200 || len(resp.Tasks) != 1 || resp.Tasks[0].LastUpdated != 150 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.HasOrphans() || resp.OrphanedTasks[0] != "t3" {
		t.Fatalf("orphans not decoded: %+v", resp)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ``, ErrUnauthorized},
		{"inactive", http.StatusForbidden, `{"error":"inactive_subscription","message":"renew"}`, ErrInactiveSubscription},
		{"bad request", http.StatusBadRequest, `{"error":"bad_request"}`, ErrServer},
		{"plain 500", http.StatusInternalServerError, `boom`, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Sync(context.Background(), "tok", &SyncRequest{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Fatalf("expected APIError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.Close()

	_, err = c.Refresh(context.Background(), RefreshRequest{RefreshToken: "r"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestBreakerOpensOnRepeatedFailures(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		c.Sync(context.Background(), "tok", &SyncRequest{})
	}
	_, err := c.Sync(context.Background(), "tok", &SyncRequest{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected open breaker to report ErrNetwork, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("server calls: got %d, want 5", calls)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	for i := 0; i < 10; i++ {
		_, err := c.Sync(context.Background(), "tok", &SyncRequest{})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("call %d: expected ErrUnauthorized, got %v", i, err)
		}
	}
}

func TestLogoutIgnoresBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer")
		}
		w.Write([]byte("not json"))
	})
	if err := c.Logout(context.Background(), "tok", "dev"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
}
