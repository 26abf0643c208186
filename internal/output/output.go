// Package output provides styled terminal output helpers (success, error,
// warning, record formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/tock/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	projectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	rateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeDatabaseError = "database_error"
	ErrCodeNotLoggedIn   = "not_logged_in"
	ErrCodeSyncFailed    = "sync_failed"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// StatusPrinter prints status board messages as they are posted.
type StatusPrinter struct{}

// Positive prints msg in the success style.
func (StatusPrinter) Positive(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// Negative prints msg in the error style.
func (StatusPrinter) Negative(msg string) {
	fmt.Println(errorStyle.Render(msg))
}

// FormatDuration renders d as "1h 05m", "12m" or "40s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatRate returns "" for a zero rate, otherwise "12.5 EUR/h".
func FormatRate(rate float64, currency string) string {
	if rate == 0 {
		return ""
	}
	r := strconv.FormatFloat(rate, 'f', -1, 64)
	if currency == "" {
		return r + "/h"
	}
	return fmt.Sprintf("%s %s/h", r, currency)
}

func labels(project, tags string, rate float64, currency string) []string {
	var parts []string
	if project != "" {
		parts = append(parts, projectStyle.Render("@"+project))
	}
	if tags != "" {
		parts = append(parts, tagStyle.Render(tags))
	}
	if r := FormatRate(rate, currency); r != "" {
		parts = append(parts, rateStyle.Render(r))
	}
	return parts
}

// FormatTask formats a task in short format
func FormatTask(t *models.Task) string {
	parts := []string{
		subtleStyle.Render(ShortUID(t.UID)),
		t.StartTime.Local().Format("2006-01-02 15:04"),
		titleStyle.Render(t.Name),
		FormatDuration(t.Duration()),
	}
	parts = append(parts, labels(t.Project, t.Tags, t.Rate, t.Currency)...)
	return strings.Join(parts, "  ")
}

// FormatShortcut formats a shortcut in short format
func FormatShortcut(s *models.Shortcut) string {
	name := titleStyle.Render(s.Name)
	if s.ColorHex != "" {
		name = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.ColorHex)).Render(s.Name)
	}
	parts := []string{subtleStyle.Render(ShortUID(s.UID)), name}
	parts = append(parts, labels(s.Project, s.Tags, s.Rate, s.Currency)...)
	return strings.Join(parts, "  ")
}

// FormatTodo formats a todo in short format
func FormatTodo(t *models.Todo) string {
	mark := "○"
	if t.IsCompleted {
		mark = successStyle.Render("✓")
	}
	parts := []string{
		subtleStyle.Render(ShortUID(t.UID)),
		mark,
		t.Date.Local().Format("2006-01-02"),
		titleStyle.Render(t.Name),
	}
	parts = append(parts, labels(t.Project, t.Tags, t.Rate, t.Currency)...)
	return strings.Join(parts, "  ")
}

// ShortUID shortens a uid to 8 characters for display.
func ShortUID(uid string) string {
	if len(uid) > 8 {
		return uid[:8]
	}
	return uid
}

// MaskSecret shows the first and last four characters of s.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nTASKS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
