// Package syncclient is the HTTP client for the tock sync server.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/marcus/tock/internal/models"
)

// Sentinel errors for the classes of failure callers act on.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInactiveSubscription = errors.New("subscription inactive")
	ErrServer               = errors.New("server error")
	ErrNetwork              = errors.New("network error")
	ErrInvalidServerURL     = errors.New("server must contain protocol")
)

// codeInactiveSubscription is the error code the server sends for lapsed accounts.
const codeInactiveSubscription = "inactive_subscription"

// Client is an HTTP client for the sync server.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New creates a client for serverURL. The URL must carry an http or https
// scheme; a trailing slash is dropped.
func New(serverURL string) (*Client, error) {
	base, err := NormalizeServerURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		breaker: newBreaker(),
	}, nil
}

// NormalizeServerURL trims trailing slashes and checks for a scheme and host.
func NormalizeServerURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidServerURL, raw)
	}
	return trimmed, nil
}

// --- Wire types ---

// LoginRequest is the body for POST /api/login. EncryptionKey carries the
// key verifier, never the key itself.
type LoginRequest struct {
	Email         string `json:"email"`
	EncryptionKey string `json:"encryption_key"`
	DeviceID      string `json:"device_id"`
}

// LoginResponse is the response from POST /api/login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest is the body for POST /api/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id"`
}

// RefreshResponse is the response from POST /api/refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type logoutRequest struct {
	DeviceID string `json:"device_id"`
}

// SyncRequest is the body for POST /api/sync.
type SyncRequest struct {
	LastSync  int64                    `json:"last_sync"`
	DeviceID  string                   `json:"device_id"`
	Tasks     []models.EncryptedRecord `json:"tasks"`
	Shortcuts []models.EncryptedRecord `json:"shortcuts"`
	Todos     []models.EncryptedRecord `json:"todos"`
}

// SyncResponse is the response from POST /api/sync. The orphaned lists name
// uids the server is missing and wants re-sent.
type SyncResponse struct {
	ServerTimestamp   int64                    `json:"server_timestamp"`
	Tasks             []models.EncryptedRecord `json:"tasks"`
	Shortcuts         []models.EncryptedRecord `json:"shortcuts"`
	Todos             []models.EncryptedRecord `json:"todos"`
	OrphanedTasks     []string                 `json:"orphaned_tasks"`
	OrphanedShortcuts []string                 `json:"orphaned_shortcuts"`
	OrphanedTodos     []string                 `json:"orphaned_todos"`
}

// HasOrphans reports whether the server asked for any records again.
func (r *SyncResponse) HasOrphans() bool {
	return len(r.OrphanedTasks) > 0 || len(r.OrphanedShortcuts) > 0 || len(r.OrphanedTodos) > 0
}

// --- Auth methods ---

// Login exchanges the account email and key verifier for a token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh obtains a new access token.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/refresh", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the server to forget this device's tokens. The response body
// is ignored.
func (c *Client) Logout(ctx context.Context, accessToken, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, "/api/logout", accessToken, logoutRequest{DeviceID: deviceID}, nil)
}

// --- Sync methods ---

// Sync sends local deltas and receives remote deltas in one exchange.
func (c *Client) Sync(ctx context.Context, accessToken string, req *SyncRequest) (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/sync", accessToken, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

// APIError is a non-2xx reply. Code and Message come from the server's
// {"error", "message"} body when it sends one.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d", e.Status)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps the reply onto a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Code == codeInactiveSubscription:
		return ErrInactiveSubscription
	default:
		return ErrServer
	}
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, token, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if err != nil {
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: unmarshal response: %v", ErrServer, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || (apiErr.Code == "" && apiErr.Message == "") {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}
	return respBody, nil
}

// newBreaker trips after repeated transport or 5xx failures. 4xx replies are
// answers, not outages, and leave the breaker closed.
func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "sync-server",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("sync client: breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})
}
