// Package dateparse parses the relative and absolute dates and times accepted
// by the tracking commands.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	clockLayout    = "15:04"
)

// ParseDay parses a day and returns local midnight of that day, relative to now.
//
// Supported formats:
//   - Exact dates: "2026-03-01"
//   - Relative days: "+7d", "-1d"
//   - Relative weeks: "+2w"
//   - Relative months: "+1m"
//   - Day names: "monday", "tuesday", etc. (next occurrence)
//   - Keywords: "today", "tomorrow", "yesterday", "next-week", "next-month"
func ParseDay(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date input")
	}
	loc := now.Location()

	// Exact date: YYYY-MM-DD
	if t, err := time.ParseInLocation(dateLayout, input, loc); err == nil {
		return t, nil
	}

	today := midnight(now)

	// Keywords
	switch input {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "next-week":
		// Next Monday
		daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		if daysUntilMonday == 0 {
			daysUntilMonday = 7
		}
		return today.AddDate(0, 0, daysUntilMonday), nil
	case "next-month":
		// 1st of next month
		year, month, _ := now.Date()
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc), nil
	}

	// Relative offsets: +Nd, -Nd, +Nw, +Nm
	if (input[0] == '+' || input[0] == '-') && len(input) >= 3 {
		suffix := input[len(input)-1]
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err == nil && n >= 0 {
			if input[0] == '-' {
				n = -n
			}
			switch suffix {
			case 'd':
				return today.AddDate(0, 0, n), nil
			case 'w':
				return today.AddDate(0, 0, n*7), nil
			case 'm':
				return today.AddDate(0, n, 0), nil
			default:
				return time.Time{}, fmt.Errorf("unknown relative unit %q in %q (use d, w, or m)", string(suffix), input)
			}
		}
	}

	// Day names: next occurrence of that weekday
	dayMap := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if target, ok := dayMap[input]; ok {
		daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7 // always advance to next occurrence
		}
		return today.AddDate(0, 0, daysAhead), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", input)
}

// ParseTime parses a point in time relative to now.
//
// Supported formats:
//   - "now"
//   - RFC 3339: "2026-03-01T09:30:00+01:00"
//   - Local date and time: "2026-03-01 09:30"
//   - Local clock time today: "09:30"
//   - Offsets from now: "-90m", "-2h", "+15m"
func ParseTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty time input")
	}
	if strings.EqualFold(input, "now") {
		return now, nil
	}

	loc := now.Location()
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, input, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(clockLayout, input, loc); err == nil {
		y, m, d := now.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	if input[0] == '+' || input[0] == '-' {
		if d, err := time.ParseDuration(input); err == nil {
			return now.Add(d), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", input)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
