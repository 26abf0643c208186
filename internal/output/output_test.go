package output

import (
	"strings"
	"testing"
	"time"

	"github.com/marcus/tock/internal/models"
)

// TestFormatTimeAgoJustNow tests times less than a minute ago
func TestFormatTimeAgoJustNow(t *testing.T) {
	now := time.Now()
	tests := []time.Time{
		now,
		now.Add(-30 * time.Second),
		now.Add(-59 * time.Second),
	}

	for _, tm := range tests {
		result := FormatTimeAgo(tm)
		if result != "just now" {
			t.Errorf("FormatTimeAgo(%v) = %q, want 'just now'", tm, result)
		}
	}
}

// TestFormatTimeAgoMinutes tests times 1-59 minutes ago
func TestFormatTimeAgoMinutes(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1 * time.Minute, "1m ago"},
		{2 * time.Minute, "2m ago"},
		{30 * time.Minute, "30m ago"},
		{59 * time.Minute, "59m ago"},
	}

	for _, tc := range tests {
		tm := time.Now().Add(-tc.duration)
		result := FormatTimeAgo(tm)
		if result != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.duration, result, tc.expected)
		}
	}
}

// TestFormatTimeAgoHours tests times 1-23 hours ago
func TestFormatTimeAgoHours(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1 * time.Hour, "1h ago"},
		{2 * time.Hour, "2h ago"},
		{12 * time.Hour, "12h ago"},
		{23 * time.Hour, "23h ago"},
	}

	for _, tc := range tests {
		tm := time.Now().Add(-tc.duration)
		result := FormatTimeAgo(tm)
		if result != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.duration, result, tc.expected)
		}
	}
}

// TestFormatTimeAgoDays tests times 1-6 days ago
func TestFormatTimeAgoDays(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{24 * time.Hour, "1d ago"},
		{48 * time.Hour, "2d ago"},
		{6 * 24 * time.Hour, "6d ago"},
	}

	for _, tc := range tests {
		tm := time.Now().Add(-tc.duration)
		result := FormatTimeAgo(tm)
		if result != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.duration, result, tc.expected)
		}
	}
}

// TestFormatTimeAgoDate tests times 7+ days ago (returns date)
func TestFormatTimeAgoDate(t *testing.T) {
	tm := time.Now().Add(-8 * 24 * time.Hour)
	result := FormatTimeAgo(tm)
	expected := tm.Format("2006-01-02")
	if result != expected {
		t.Errorf("FormatTimeAgo(-8d) = %q, want %q", result, expected)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Minute, "0s"},
		{40 * time.Second, "40s"},
		{12 * time.Minute, "12m"},
		{65 * time.Minute, "1h 05m"},
		{25*time.Hour + 30*time.Minute, "25h 30m"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate     float64
		currency string
		want     string
	}{
		{0, "EUR", ""},
		{12.5, "EUR", "12.5 EUR/h"},
		{40, "", "40/h"},
	}
	for _, tc := range tests {
		if got := FormatRate(tc.rate, tc.currency); got != tc.want {
			t.Errorf("FormatRate(%v, %q) = %q, want %q", tc.rate, tc.currency, got, tc.want)
		}
	}
}

func TestFormatTask(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	task := &models.Task{
		Name:      "Write report",
		StartTime: start,
		StopTime:  start.Add(90 * time.Minute),
		Project:   "acme",
		Tags:      "#writing",
		Rate:      50,
		Currency:  "USD",
		SyncMeta:  models.SyncMeta{UID: "0123456789abcdef"},
	}
	result := FormatTask(task)

	for _, want := range []string{"01234567", "2026-03-02 09:00", "Write report", "1h 30m", "@acme", "#writing", "50 USD/h"} {
		if !strings.Contains(result, want) {
			t.Errorf("FormatTask missing %q in %q", want, result)
		}
	}
	if strings.Contains(result, "89abcdef") {
		t.Error("uid should be shortened")
	}
}

func TestFormatShortcut(t *testing.T) {
	s := &models.Shortcut{Name: "Standup", Project: "team", ColorHex: "#ff8800", SyncMeta: models.SyncMeta{UID: "abc"}}
	result := FormatShortcut(s)
	if !strings.Contains(result, "Standup") || !strings.Contains(result, "@team") {
		t.Errorf("FormatShortcut = %q", result)
	}
}

func TestFormatTodo(t *testing.T) {
	todo := &models.Todo{Name: "Invoice", Date: time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local)}
	open := FormatTodo(todo)
	if !strings.Contains(open, "○") || !strings.Contains(open, "2026-05-01") {
		t.Errorf("open todo = %q", open)
	}
	todo.IsCompleted = true
	if done := FormatTodo(todo); !strings.Contains(done, "✓") {
		t.Errorf("completed todo = %q", done)
	}
}

func TestShortUID(t *testing.T) {
	if got := ShortUID("abc"); got != "abc" {
		t.Errorf("ShortUID(abc) = %q", got)
	}
	if got := ShortUID("0123456789"); got != "01234567" {
		t.Errorf("ShortUID(0123456789) = %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "*****"},
		{"abcdefghijkl", "abcd****ijkl"},
	}
	for _, tc := range tests {
		if got := MaskSecret(tc.in); got != tc.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestFormatTimeAgoEdgeCases tests edge cases in time formatting
func TestFormatTimeAgoEdgeCases(t *testing.T) {
	// Exactly at minute boundary
	tm := time.Now().Add(-60 * time.Second)
	result := FormatTimeAgo(tm)
	if result != "1m ago" {
		t.Errorf("At 60s boundary: got %q, want '1m ago'", result)
	}

	// Exactly at hour boundary
	tm = time.Now().Add(-60 * time.Minute)
	result = FormatTimeAgo(tm)
	if result != "1h ago" {
		t.Errorf("At 60m boundary: got %q, want '1h ago'", result)
	}

	// Exactly at day boundary
	tm = time.Now().Add(-24 * time.Hour)
	result = FormatTimeAgo(tm)
	if result != "1d ago" {
		t.Errorf("At 24h boundary: got %q, want '1d ago'", result)
	}
}

func TestSectionHeader(t *testing.T) {
	if got := SectionHeader("tasks"); got != "\nTASKS:\n" {
		t.Errorf("SectionHeader(tasks) = %q", got)
	}
}

func TestSyncReportMarkdown(t *testing.T) {
	loggedOut := SyncReport{}.Markdown()
	if !strings.Contains(loggedOut, "Not logged in") {
		t.Errorf("logged out report = %q", loggedOut)
	}

	r := SyncReport{
		Email:         "ann@example.com",
		Server:        "https://sync.example.com",
		State:         "logged in",
		NeedsFullSync: true,
		Tasks:         3,
		Shortcuts:     1,
	}
	md := r.Markdown()
	for _, want := range []string{"ann@example.com", "https://sync.example.com", "| Last sync | never |", "| Next sync | full |", "- Tasks: 3", "- Todos: 0"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdownWithWidthEmpty(t *testing.T) {
	out, err := RenderMarkdownWithWidth("   ", 80)
	if err != nil || out != "" {
		t.Fatalf("empty render: got %q, %v", out, err)
	}
}
