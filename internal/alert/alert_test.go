package alert

import (
	"context"
	"errors"
	"testing"
)

type recordingActions struct {
	calls []string
	err   error
}

func (r *recordingActions) DeleteTask(_ context.Context, uid string) error {
	r.calls = append(r.calls, "task:"+uid)
	return r.err
}

func (r *recordingActions) DeleteShortcut(_ context.Context, uid string) error {
	r.calls = append(r.calls, "shortcut:"+uid)
	return r.err
}

func (r *recordingActions) DeleteTodo(_ context.Context, uid string) error {
	r.calls = append(r.calls, "todo:"+uid)
	return r.err
}

func (r *recordingActions) Logout(context.Context) error {
	r.calls = append(r.calls, "logout")
	return r.err
}

func TestDispatchRoutesIntents(t *testing.T) {
	tests := []struct {
		intent Intent
		want   string
	}{
		{ConfirmDeleteTask{UID: "t1"}, "task:t1"},
		{ConfirmDeleteShortcut{UID: "s1"}, "shortcut:s1"},
		{ConfirmDeleteTodo{UID: "d1"}, "todo:d1"},
		{ConfirmLogout{}, "logout"},
	}
	for _, tt := range tests {
		actions := &recordingActions{}
		d := NewDispatcher(actions, AutoConfirm)

		ran, err := d.Dispatch(context.Background(), tt.intent)
		if err != nil || !ran {
			t.Fatalf("Dispatch(%T): ran=%v err=%v", tt.intent, ran, err)
		}
		if len(actions.calls) != 1 || actions.calls[0] != tt.want {
			t.Fatalf("Dispatch(%T): calls %v, want [%s]", tt.intent, actions.calls, tt.want)
		}
	}
}

func TestDispatchDeclined(t *testing.T) {
	actions := &recordingActions{}
	var prompt string
	d := NewDispatcher(actions, func(p string) (bool, error) {
		prompt = p
		return false, nil
	})

	ran, err := d.Dispatch(context.Background(), ConfirmDeleteTask{UID: "t1"})
	if err != nil || ran {
		t.Fatalf("declined dispatch: ran=%v err=%v", ran, err)
	}
	if len(actions.calls) != 0 {
		t.Fatal("declined intent must not run")
	}
	if prompt != "Delete task t1?" {
		t.Fatalf("prompt: got %q", prompt)
	}
}

func TestDispatchErrors(t *testing.T) {
	boom := errors.New("boom")

	d := NewDispatcher(&recordingActions{err: boom}, AutoConfirm)
	if _, err := d.Dispatch(context.Background(), ConfirmLogout{}); !errors.Is(err, boom) {
		t.Fatalf("action error: got %v", err)
	}

	d = NewDispatcher(&recordingActions{}, func(string) (bool, error) { return false, boom })
	if _, err := d.Dispatch(context.Background(), ConfirmLogout{}); !errors.Is(err, boom) {
		t.Fatalf("confirm error: got %v", err)
	}
}

func TestPromptUsesLabel(t *testing.T) {
	in := ConfirmDeleteTodo{UID: "0123456789abcdef", Label: `"Buy milk"`}
	if got := in.Prompt(); got != `Delete todo "Buy milk"?` {
		t.Fatalf("prompt: got %q", got)
	}
	in.Label = ""
	if got := in.Prompt(); got != "Delete todo 0123456789abcdef?" {
		t.Fatalf("prompt without label: got %q", got)
	}
}
