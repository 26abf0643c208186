package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/tock/internal/watch"
)

func TestIsMutatingCommand(t *testing.T) {
	// Commands that should trigger auto-sync
	mutating := []string{"task add", "task edit", "task rm", "shortcut add", "shortcut use", "shortcut rm", "todo add", "todo done", "todo rm", "auth login"}
	for _, name := range mutating {
		if !isMutatingCommand(name) {
			t.Errorf("expected %q to be mutating", name)
		}
	}

	// Commands that should NOT trigger auto-sync
	readOnly := []string{"task list", "shortcut list", "todo list", "sync", "auth logout", "auth status", "daemon", "help", "task"}
	for _, name := range readOnly {
		if isMutatingCommand(name) {
			t.Errorf("expected %q to NOT be mutating", name)
		}
	}
}

func TestMutatingCommandsAreRegistered(t *testing.T) {
	for name := range mutatingCommands {
		found, _, err := rootCmd.Find(strings.Fields(name))
		if err != nil || commandKey(found) != name {
			t.Errorf("mutating command %q is not registered (found %v, err %v)", name, found, err)
		}
	}
}

func TestCommandKey(t *testing.T) {
	tests := map[string][]string{
		"task add":   {"task", "add"},
		"auth login": {"auth", "login"},
		"sync":       {"sync"},
	}
	for want, args := range tests {
		found, _, err := rootCmd.Find(args)
		if err != nil {
			t.Fatalf("Find(%v): %v", args, err)
		}
		if got := commandKey(found); got != want {
			t.Errorf("commandKey(%v) = %q, want %q", args, got, want)
		}
	}
}

func TestAutoSyncEnabled_Default(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOCK_SYNC_AUTO", "")
	if !AutoSyncEnabled() {
		t.Error("expected auto-sync enabled by default")
	}
}

func TestAutoSyncEnabled_Disabled(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOCK_SYNC_AUTO", "0")
	if AutoSyncEnabled() {
		t.Error("expected auto-sync disabled when TOCK_SYNC_AUTO=0")
	}
}

func TestAfterMutationMarksChange(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOCK_SYNC_AUTO", "0")

	dir := t.TempDir()
	prev := dataDir
	dataDir = dir
	t.Cleanup(func() { dataDir = prev })

	afterMutation(context.Background())

	if _, err := os.Stat(filepath.Join(dir, watch.MarkerName)); err != nil {
		t.Fatalf("marker not written: %v", err)
	}
}

func TestAfterMutationLoggedOutIsQuiet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOCK_SYNC_AUTO", "1")

	dir := t.TempDir()
	prev := dataDir
	dataDir = dir
	t.Cleanup(func() { dataDir = prev })

	// No credentials stored: the inline sync is skipped without touching
	// the network.
	afterMutation(context.Background())

	if _, err := os.Stat(filepath.Join(dir, watch.MarkerName)); err != nil {
		t.Fatalf("marker not written: %v", err)
	}
}
