// Package alert models confirmation prompts as data. A caller builds an
// Intent, the Dispatcher asks for confirmation and then performs the action
// the intent names.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
)

// ErrUnknownIntent is returned for intents the dispatcher cannot interpret.
var ErrUnknownIntent = errors.New("unknown alert intent")

// Intent is a pending action that needs confirmation.
type Intent interface {
	// Prompt is the question shown to the user.
	Prompt() string
	intent()
}

// The delete intents carry the full uid and, optionally, a Label shown in
// the prompt instead of it.
type ConfirmDeleteTask struct{ UID, Label string }
type ConfirmDeleteShortcut struct{ UID, Label string }
type ConfirmDeleteTodo struct{ UID, Label string }
type ConfirmLogout struct{}

func (i ConfirmDeleteTask) Prompt() string     { return fmt.Sprintf("Delete task %s?", label(i.Label, i.UID)) }
func (i ConfirmDeleteShortcut) Prompt() string { return fmt.Sprintf("Delete shortcut %s?", label(i.Label, i.UID)) }
func (i ConfirmDeleteTodo) Prompt() string     { return fmt.Sprintf("Delete todo %s?", label(i.Label, i.UID)) }
func (ConfirmLogout) Prompt() string           { return "Log out and remove the stored sync key from this device?" }

func label(l, uid string) string {
	if l != "" {
		return l
	}
	return uid
}

func (ConfirmDeleteTask) intent()     {}
func (ConfirmDeleteShortcut) intent() {}
func (ConfirmDeleteTodo) intent()     {}
func (ConfirmLogout) intent()         {}

// Actions performs confirmed intents.
type Actions interface {
	DeleteTask(ctx context.Context, uid string) error
	DeleteShortcut(ctx context.Context, uid string) error
	DeleteTodo(ctx context.Context, uid string) error
	Logout(ctx context.Context) error
}

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) (bool, error)

// AutoConfirm accepts every prompt. Used for --yes.
func AutoConfirm(string) (bool, error) { return true, nil }

// HuhConfirm asks on the terminal with a huh confirm field.
func HuhConfirm(prompt string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		WithTheme(huh.ThemeDracula()).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// Dispatcher interprets intents.
type Dispatcher struct {
	actions Actions
	confirm Confirmer
}

// NewDispatcher creates a dispatcher. A nil confirm uses HuhConfirm.
func NewDispatcher(actions Actions, confirm Confirmer) *Dispatcher {
	if confirm == nil {
		confirm = HuhConfirm
	}
	return &Dispatcher{actions: actions, confirm: confirm}
}

// Dispatch confirms in and runs its action. It reports whether the action ran.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent) (bool, error) {
	ok, err := d.confirm(in.Prompt())
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		slog.Debug("alert: declined", "intent", fmt.Sprintf("%T", in))
		return false, nil
	}

	switch v := in.(type) {
	case ConfirmDeleteTask:
		err = d.actions.DeleteTask(ctx, v.UID)
	case ConfirmDeleteShortcut:
		err = d.actions.DeleteShortcut(ctx, v.UID)
	case ConfirmDeleteTodo:
		err = d.actions.DeleteTodo(ctx, v.UID)
	case ConfirmLogout:
		err = d.actions.Logout(ctx)
	default:
		return false, fmt.Errorf("%w: %T", ErrUnknownIntent, in)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
