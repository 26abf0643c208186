package sync

import (
	"errors"

	"github.com/marcus/tock/internal/auth"
	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/syncclient"
)

var (
	ErrReauthenticate     = errors.New("reauthentication required")
	ErrPersistence        = errors.New("local store failed")
	ErrCredentialsChanged = errors.New("credentials changed during sync")
)

// User-visible status texts.
const (
	MsgFailed         = "sync failed"
	MsgKeyError       = "error decrypting key"
	MsgReauthenticate = "please reauthenticate"
	MsgInactive       = "subscription inactive"
	MsgNotLoggedIn    = "please log in first"
	MsgServerProtocol = "server must contain protocol"
	MsgDeviceError    = "could not identify this device"
	MsgCancelled      = "sync cancelled"
)

// StatusMessage maps a sync error onto the text shown to the user.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, auth.ErrNotLoggedIn):
		return MsgNotLoggedIn
	case errors.Is(err, crypto.ErrKeyUnwrap):
		return MsgKeyError
	case errors.Is(err, ErrReauthenticate), errors.Is(err, auth.ErrTokenRefresh):
		return MsgReauthenticate
	case errors.Is(err, syncclient.ErrInactiveSubscription):
		return MsgInactive
	case errors.Is(err, syncclient.ErrInvalidServerURL):
		return MsgServerProtocol
	case errors.Is(err, crypto.ErrDeviceDerivation):
		return MsgDeviceError
	case errors.Is(err, ErrCredentialsChanged):
		return MsgCancelled
	default:
		return MsgFailed
	}
}
