package monitor

import (
	"fmt"
	"strings"
)

// Command represents a named action a key can trigger
type Command string

const (
	CmdQuit       Command = "quit"
	CmdSync       Command = "sync"
	CmdRefresh    Command = "refresh"
	CmdToggleHelp Command = "toggle-help"
)

// Binding maps a key to a command
type Binding struct {
	Key         string // e.g. "q", "ctrl+c"
	Command     Command
	Description string // shown in the help panel
	Short       string // shown in the footer, empty to hide
}

// DefaultBindings are the monitor's key bindings
var DefaultBindings = []Binding{
	{Key: "q", Command: CmdQuit, Description: "quit the monitor", Short: "quit"},
	{Key: "ctrl+c", Command: CmdQuit, Description: "quit the monitor"},
	{Key: "s", Command: CmdSync, Description: "request a sync now", Short: "sync now"},
	{Key: "r", Command: CmdRefresh, Description: "reload counts and watermark", Short: "refresh"},
	{Key: "?", Command: CmdToggleHelp, Description: "toggle this help", Short: "help"},
}

// Keymap resolves keys to commands
type Keymap struct {
	bindings []Binding
	byKey    map[string]Command
}

// NewKeymap builds a keymap. Later bindings for the same key win.
func NewKeymap(bindings []Binding) *Keymap {
	km := &Keymap{bindings: bindings, byKey: make(map[string]Command, len(bindings))}
	for _, b := range bindings {
		km.byKey[b.Key] = b.Command
	}
	return km
}

// Lookup returns the command bound to key
func (km *Keymap) Lookup(key string) (Command, bool) {
	cmd, ok := km.byKey[key]
	return cmd, ok
}

// FooterHint renders "q:quit  s:sync now" from the bindings with a Short text
func (km *Keymap) FooterHint() string {
	var parts []string
	for _, b := range km.bindings {
		if b.Short != "" {
			parts = append(parts, b.Key+":"+b.Short)
		}
	}
	return strings.Join(parts, "  ")
}

// HelpLines groups keys by command, one line per command
func (km *Keymap) HelpLines() []string {
	var order []Command
	keys := make(map[Command][]string)
	desc := make(map[Command]string)
	for _, b := range km.bindings {
		if _, seen := keys[b.Command]; !seen {
			order = append(order, b.Command)
			desc[b.Command] = b.Description
		}
		keys[b.Command] = append(keys[b.Command], b.Key)
	}

	lines := make([]string, 0, len(order))
	for _, c := range order {
		lines = append(lines, fmt.Sprintf("%-10s %s", strings.Join(keys[c], ", "), desc[c]))
	}
	return lines
}
