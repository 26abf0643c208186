package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestShortcutUIDDeterministic(t *testing.T) {
	a := ShortcutUID("write", "#docs", "tock", 12.5, "USD")
	b := ShortcutUID("write", "#docs", "tock", 12.5, "USD")
	if a != b {
		t.Fatalf("uid not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("uid length: got %d, want 64", len(a))
	}

	c := ShortcutUID("write", "#docs", "tock", 13, "USD")
	if a == c {
		t.Fatal("different rate should change uid")
	}
}

func TestTodoUIDUsesDate(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	if TodoUID("plan", d1) == TodoUID("plan", d2) {
		t.Fatal("todos on different days should have different uids")
	}
	if TodoUID("plan", d1) != NewTodo("plan", "", "", 0, "", d1).UID {
		t.Fatal("NewTodo should use TodoUID")
	}
}

func TestNewTaskUniqueUID(t *testing.T) {
	now := time.Now()
	a := NewTask("a", now, now, "", "", 0, "")
	b := NewTask("a", now, now, "", "", 0, "")
	if a.UID == b.UID {
		t.Fatal("tasks should get distinct uids")
	}
	if a.LastUpdated == 0 {
		t.Fatal("LastUpdated should be set")
	}
}

func TestTaskJSONFlattensMeta(t *testing.T) {
	task := &Task{Name: "a", SyncMeta: SyncMeta{UID: "u1", LastUpdated: 50, IsDeleted: true}}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"uid", "is_deleted", "last_updated", "name", "start_time"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
}

func TestRecordInterface(t *testing.T) {
	var records []Record = []Record{&Task{}, &Shortcut{}, &Todo{}}
	for _, r := range records {
		r.Meta().Touch(time.Unix(100, 0))
		if r.Meta().LastUpdated != 100 {
			t.Fatalf("Touch: got %d, want 100", r.Meta().LastUpdated)
		}
	}
}

func TestTaskDuration(t *testing.T) {
	start := time.Unix(1000, 0)
	task := &Task{StartTime: start, StopTime: start.Add(90 * time.Minute)}
	if task.Duration() != 90*time.Minute {
		t.Fatalf("Duration: got %v", task.Duration())
	}
	task.StopTime = start.Add(-time.Minute)
	if task.Duration() != 0 {
		t.Fatalf("negative span should be 0, got %v", task.Duration())
	}
}
