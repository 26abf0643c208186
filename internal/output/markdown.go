package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

// SyncReport is the data shown by `tock sync --status`.
type SyncReport struct {
	Email         string
	Server        string
	State         string
	LastSync      time.Time
	NeedsFullSync bool
	Tasks         int
	Shortcuts     int
	Todos         int
}

// Markdown renders the report as a markdown document.
func (r SyncReport) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Sync status\n\n")
	if r.Email == "" {
		sb.WriteString("Not logged in. Run `tock auth login` to enable sync.\n")
		return sb.String()
	}

	last := "never"
	if !r.LastSync.IsZero() {
		last = fmt.Sprintf("%s (%s)", r.LastSync.Local().Format("2006-01-02 15:04:05"), FormatTimeAgo(r.LastSync))
	}
	next := "incremental"
	if r.NeedsFullSync {
		next = "full"
	}

	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Account | %s |\n", r.Email)
	fmt.Fprintf(&sb, "| Server | %s |\n", r.Server)
	fmt.Fprintf(&sb, "| State | %s |\n", r.State)
	fmt.Fprintf(&sb, "| Last sync | %s |\n", last)
	fmt.Fprintf(&sb, "| Next sync | %s |\n", next)

	sb.WriteString("\n## Local records\n\n")
	fmt.Fprintf(&sb, "- Tasks: %d\n", r.Tasks)
	fmt.Fprintf(&sb, "- Shortcuts: %d\n", r.Shortcuts)
	fmt.Fprintf(&sb, "- Todos: %d\n", r.Todos)
	return sb.String()
}
