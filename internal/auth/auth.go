// Package auth manages the sync login: obtaining tokens, refreshing the
// access token and purging credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/models"
	"github.com/marcus/tock/internal/syncclient"
)

var (
	ErrAuth         = errors.New("authentication failed")
	ErrTokenRefresh = errors.New("token refresh failed")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// State is the login state machine:
// LoggedOut -> LoggingIn -> LoggedIn -> TokenExpired -> Refreshing -> LoggedIn | LoggedOut
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
	TokenExpired
	Refreshing
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	case TokenExpired:
		return "token expired"
	case Refreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store persists the single login. StoreCredentials also flags the next
// sync as a full one.
type Store interface {
	GetCredentials() (*models.Credentials, error)
	StoreCredentials(c *models.Credentials) error
	UpdateAccessToken(email, token string) error
	DeleteCredentials() error
}

// Server is the subset of the sync API used for authentication.
type Server interface {
	Login(ctx context.Context, req syncclient.LoginRequest) (*syncclient.LoginResponse, error)
	Refresh(ctx context.Context, req syncclient.RefreshRequest) (*syncclient.RefreshResponse, error)
	Logout(ctx context.Context, accessToken, deviceID string) error
}

// Dialer returns a Server for a normalized server URL.
type Dialer func(serverURL string) (Server, error)

// HTTPDialer dials the real sync server.
func HTTPDialer(serverURL string) (Server, error) {
	c, err := syncclient.New(serverURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client drives the login state machine.
type Client struct {
	store    Store
	dial     Dialer
	deviceID string

	mu    sync.Mutex
	state State
}

// New creates an auth client for this device.
func New(store Store, deviceID string, dial Dialer) *Client {
	if dial == nil {
		dial = HTTPDialer
	}
	return &Client{store: store, dial: dial, deviceID: deviceID}
}

// State returns the last known login state. Before any operation it is
// derived from the stored credentials.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == LoggedOut {
		creds, err := c.store.GetCredentials()
		if err == nil && creds != nil {
			if AccessTokenExpired(creds.AccessToken, time.Now()) {
				return TokenExpired
			}
			return LoggedIn
		}
	}
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Login derives the data key from the passphrase, authenticates, wraps the
// key with the device key and stores the credentials. The next sync is
// forced to be a full one.
func (c *Client) Login(ctx context.Context, email, passphrase, serverURL string) error {
	base, err := syncclient.NormalizeServerURL(serverURL)
	if err != nil {
		return err
	}
	srv, err := c.dial(base)
	if err != nil {
		return err
	}

	c.setState(LoggingIn)
	email = crypto.NormalizeEmail(email)
	dataKey := crypto.DeriveDataKey(passphrase, email)

	resp, err := srv.Login(ctx, syncclient.LoginRequest{
		Email:         email,
		EncryptionKey: crypto.Verifier(dataKey),
		DeviceID:      c.deviceID,
	})
	if err != nil {
		c.setState(LoggedOut)
		var apiErr *syncclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 && !errors.Is(err, syncclient.ErrInactiveSubscription) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		c.setState(LoggedOut)
		return fmt.Errorf("%w: server returned no tokens", ErrAuth)
	}

	wrapped, nonce, err := crypto.WrapKey(c.deviceID, dataKey)
	if err != nil {
		c.setState(LoggedOut)
		return fmt.Errorf("wrap data key: %w", err)
	}

	if err := c.store.StoreCredentials(&models.Credentials{
		Email:        email,
		EncryptedKey: wrapped,
		KeyNonce:     nonce,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Server:       base,
	}); err != nil {
		c.setState(LoggedOut)
		return err
	}

	c.setState(LoggedIn)
	slog.Info("auth: logged in", "email", email, "server", base)
	return nil
}

// Refresh exchanges the refresh token for a new access token and persists
// it. A server rejection is reported as ErrTokenRefresh; transport failures
// keep their own error so the caller can tell the two apart.
func (c *Client) Refresh(ctx context.Context, creds *models.Credentials) (string, error) {
	c.setState(Refreshing)

	srv, err := c.dial(creds.Server)
	if err != nil {
		c.setState(TokenExpired)
		return "", err
	}

	resp, err := srv.Refresh(ctx, syncclient.RefreshRequest{
		RefreshToken: creds.RefreshToken,
		DeviceID:     c.deviceID,
	})
	if err != nil {
		c.setState(TokenExpired)
		var apiErr *syncclient.APIError
		if errors.As(err, &apiErr) && !errors.Is(err, syncclient.ErrInactiveSubscription) {
			return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
		}
		return "", err
	}
	if resp.AccessToken == "" {
		c.setState(TokenExpired)
		return "", fmt.Errorf("%w: empty access token", ErrTokenRefresh)
	}

	if err := c.store.UpdateAccessToken(creds.Email, resp.AccessToken); err != nil {
		return "", err
	}
	creds.AccessToken = resp.AccessToken
	c.setState(LoggedIn)
	return resp.AccessToken, nil
}

// Logout notifies the server on a best-effort basis and always purges the
// local credentials.
func (c *Client) Logout(ctx context.Context) error {
	creds, err := c.store.GetCredentials()
	if err != nil {
		return err
	}
	if creds == nil {
		c.setState(LoggedOut)
		return nil
	}
	return c.Purge(ctx, creds)
}

// Purge is Logout for credentials the caller already holds.
func (c *Client) Purge(ctx context.Context, creds *models.Credentials) error {
	if srv, err := c.dial(creds.Server); err == nil {
		if err := srv.Logout(ctx, creds.AccessToken, c.deviceID); err != nil {
			slog.Debug("auth: server logout", "err", err)
		}
	}

	if err := c.store.DeleteCredentials(); err != nil {
		return err
	}
	c.setState(LoggedOut)
	slog.Info("auth: credentials purged", "email", creds.Email)
	return nil
}

// AccessTokenExpired reports whether token is a JWT whose exp claim is in
// the past. Opaque tokens are never considered expired here; the server's
// 401 is the authority for those.
func AccessTokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
