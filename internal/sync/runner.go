package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"
)

// ErrAlreadyRunning is returned when a service's Serve is entered twice.
// It wraps suture.ErrDoNotRestart so a supervisor leaves the duplicate down.
var ErrAlreadyRunning = fmt.Errorf("%w: already running", suture.ErrDoNotRestart)

// Syncer runs one sync attempt.
type Syncer interface {
	Sync(ctx context.Context) (Result, error)
	LoggedIn() bool
}

// Runner executes sync requests one at a time. Requests that arrive while
// a sync runs are coalesced into a single follow-up sync.
type Runner struct {
	syncer  Syncer
	pending chan struct{}
	running atomic.Bool
}

// NewRunner creates a runner for s.
func NewRunner(s Syncer) *Runner {
	return &Runner{syncer: s, pending: make(chan struct{}, 1)}
}

// Trigger requests a sync without blocking.
func (r *Runner) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service.
func (r *Runner) Serve(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.pending:
			if !r.syncer.LoggedIn() {
				slog.Debug("sync runner: not logged in, skipping")
				continue
			}
			r.syncer.Sync(ctx)
		}
	}
}

func (r *Runner) String() string { return "sync-runner" }

// Scheduler requests a sync every interval.
type Scheduler struct {
	interval time.Duration
	trigger  func()
	running  atomic.Bool
}

// NewScheduler creates a scheduler that calls trigger every interval.
func NewScheduler(interval time.Duration, trigger func()) *Scheduler {
	return &Scheduler{interval: interval, trigger: trigger}
}

// Serve implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			slog.Debug("sync scheduler: tick")
			s.trigger()
		}
	}
}

func (s *Scheduler) String() string { return "sync-scheduler" }

// Debouncer turns bursts of local changes into one trigger, delay after
// the last change.
type Debouncer struct {
	delay   time.Duration
	trigger func()
	changes chan struct{}
	running atomic.Bool
}

// NewDebouncer creates a debouncer that calls trigger delay after the last Notify.
func NewDebouncer(delay time.Duration, trigger func()) *Debouncer {
	return &Debouncer{delay: delay, trigger: trigger, changes: make(chan struct{}, 1)}
}

// Notify records a local change without blocking.
func (d *Debouncer) Notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Serve implements suture.Service.
func (d *Debouncer) Serve(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.changes:
			if timer == nil {
				timer = time.NewTimer(d.delay)
			} else {
				timer.Reset(d.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			d.trigger()
		}
	}
}

func (d *Debouncer) String() string { return "sync-debouncer" }
