package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/tock/internal/db"
	"github.com/marcus/tock/internal/output"
	"github.com/marcus/tock/internal/status"
	tocksync "github.com/marcus/tock/internal/sync"
	"github.com/marcus/tock/internal/syncconfig"
	"github.com/marcus/tock/internal/tui/monitor"
	"github.com/marcus/tock/internal/watch"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

const (
	monitorRefresh  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// logSink writes status messages to the process log.
type logSink struct{}

func (logSink) Positive(msg string) { slog.Info("status", "msg", msg) }
func (logSink) Negative(msg string) { slog.Warn("status", "msg", msg) }

// newSupervisor builds the daemon's root supervisor with slog event logging.
func newSupervisor(logger *slog.Logger) *suture.Supervisor {
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()
	return suture.New("tock-daemon", suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          shutdownTimeout,
	})
}

// addSyncServices registers the runner and, with auto-sync on, the periodic
// scheduler, the change debouncer and the marker watcher.
func addSyncServices(sup *suture.Supervisor, runner *tocksync.Runner, dir string, auto bool) {
	sup.Add(runner)
	if !auto {
		slog.Info("daemon: auto-sync disabled, syncing on request only")
		return
	}
	debouncer := tocksync.NewDebouncer(syncconfig.GetAutoSyncDebounce(), runner.Trigger)
	sup.Add(tocksync.NewScheduler(syncconfig.GetAutoSyncInterval(), runner.Trigger))
	sup.Add(debouncer)
	sup.Add(watch.New(dir, debouncer.Notify))
}

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	Short:   "Run background sync",
	Long:    `Run the sync daemon: sync on start, every interval, and shortly after local changes.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		withTUI, _ := cmd.Flags().GetBool("tui")
		dir := getDataDir()

		lock, err := db.AcquireDaemonLock(dir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer lock.Release()

		if withTUI && syncconfig.GetLogFile() == "" {
			// Keep log output off the screen the monitor draws on.
			logger, closer := newLogger(logLevelOrConfig(), filepath.Join(dir, "daemon.log"))
			slog.SetDefault(logger)
			defer closer()
		}

		board := status.NewBoard(syncconfig.GetMessageDuration())
		defer board.Stop()

		a, err := openApp(status.Tee(board, logSink{}))
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := tocksync.NewRunner(a.sync)
		sup := newSupervisor(slog.Default())
		addSyncServices(sup, runner, dir, syncconfig.GetAutoSyncEnabled())
		done := sup.ServeBackground(ctx)

		runner.Trigger()
		slog.Info("daemon: started", "data_dir", dir, "interval", syncconfig.GetAutoSyncInterval())

		if withTUI {
			if err := runMonitor(ctx, a, board, runner); err != nil {
				slog.Error("daemon: monitor", "err", err)
			}
			stop()
		} else {
			<-ctx.Done()
		}

		slog.Info("daemon: shutting down")
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("daemon: supervisor stopped", "err", err)
		}
		return nil
	},
}

func runMonitor(ctx context.Context, a *app, board *status.Board, runner *tocksync.Runner) error {
	updates, cancel := board.Subscribe()
	defer cancel()

	model := monitor.NewModel(a.db, updates, monitorRefresh)
	model.StateFn = func() string { return a.auth.State().String() }
	model.Trigger = runner.Trigger

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func logLevelOrConfig() string {
	if logLevel != "" {
		return logLevel
	}
	return syncconfig.GetLogLevel()
}

func init() {
	daemonCmd.Flags().Bool("tui", false, "show a live sync monitor")
	rootCmd.AddCommand(daemonCmd)
}
