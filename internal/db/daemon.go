package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const daemonLockName = "daemon.lock"

// ErrDaemonRunning is returned when another sync daemon holds the data dir.
var ErrDaemonRunning = errors.New("sync daemon already running")

// DaemonLock marks the data directory as served by a sync daemon for as
// long as it is held.
type DaemonLock struct {
	locker *writeLocker
}

// AcquireDaemonLock takes the daemon lock without waiting.
func AcquireDaemonLock(baseDir string) (*DaemonLock, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	l := &writeLocker{lockPath: filepath.Join(baseDir, daemonLockName)}
	if err := l.acquire(0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonRunning, err)
	}
	return &DaemonLock{locker: l}, nil
}

// Release gives the lock up.
func (d *DaemonLock) Release() error {
	return d.locker.release()
}

// DaemonRunning reports whether a daemon currently holds the lock for baseDir.
func DaemonRunning(baseDir string) bool {
	path := filepath.Join(baseDir, daemonLockName)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	l := &writeLocker{lockPath: path}
	if err := l.acquire(0); err != nil {
		return true
	}
	l.release()
	return false
}
