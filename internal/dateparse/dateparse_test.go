package dateparse

import (
	"testing"
	"time"
)

// Fixed reference time: Wednesday, 2026-02-18 12:00:00 UTC
var testNow = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func TestParseDay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2026-03-01", "2026-03-01"},
		{"today", "2026-02-18"},
		{"tomorrow", "2026-02-19"},
		{"yesterday", "2026-02-17"},
		{"next-week", "2026-02-23"},  // next Monday from Wed Feb 18
		{"next-month", "2026-03-01"}, // 1st of next month
		{"+0d", "2026-02-18"},
		{"+10d", "2026-02-28"},
		{"-3d", "2026-02-15"},
		{"+2w", "2026-03-04"},
		{"+1m", "2026-03-18"},
		{"monday", "2026-02-23"},    // next Monday
		{"wednesday", "2026-02-25"}, // next Wednesday (not today)
		{"thursday", "2026-02-19"},  // next Thursday (tomorrow)
		{"FRIDAY", "2026-02-20"},
		{"  tomorrow  ", "2026-02-19"},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseDay(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got.Format(dateLayout) != tt.want {
			t.Errorf("ParseDay(%q) = %s, want %s", tt.input, got.Format(dateLayout), tt.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("ParseDay(%q) = %v, want midnight", tt.input, got)
		}
	}
}

func TestParseDay_MonthEndOverflow(t *testing.T) {
	// Jan 31 + 1 month: 2026 is not a leap year, so Go normalizes to Mar 3
	jan31 := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	got, err := ParseDay("+1m", jan31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(dateLayout) != "2026-03-03" {
		t.Errorf("Jan 31 + 1m = %s, want 2026-03-03", got.Format(dateLayout))
	}
}

func TestParseDay_NextMonthFromDecember(t *testing.T) {
	dec := time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)
	got, err := ParseDay("next-month", dec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(dateLayout) != "2026-01-01" {
		t.Errorf("next-month from December = %s, want 2026-01-01", got.Format(dateLayout))
	}
}

func TestParseDay_Errors(t *testing.T) {
	invalids := []string{"", "next year", "+3x", "notaday", "2026/03/01", "+d", "+w"}
	for _, input := range invalids {
		if _, err := ParseDay(input, testNow); err == nil {
			t.Errorf("ParseDay(%q): expected error, got nil", input)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"now", testNow},
		{"NOW", testNow},
		{"2026-03-01T09:30:00Z", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"2026-03-01 09:30", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"09:15", time.Date(2026, 2, 18, 9, 15, 0, 0, time.UTC)},
		{"-90m", testNow.Add(-90 * time.Minute)},
		{"-2h", testNow.Add(-2 * time.Hour)},
		{"+15m", testNow.Add(15 * time.Minute)},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseTime(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTime_Errors(t *testing.T) {
	invalids := []string{"", "soon", "25:00", "-2x", "2026-03-01"}
	for _, input := range invalids {
		if _, err := ParseTime(input, testNow); err == nil {
			t.Errorf("ParseTime(%q): expected error, got nil", input)
		}
	}
}
