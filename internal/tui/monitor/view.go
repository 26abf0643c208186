package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/tock/internal/output"
)

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	// Handle small terminal sizes gracefully
	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.ShowHelp {
		return m.renderHelp()
	}

	panels := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderAccountPanel(),
		m.renderHistoryPanel(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, panels, m.renderFooter())
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder
	s.WriteString("tock monitor (resize for full view)\n\n")
	s.WriteString(m.statusLine() + "\n")
	fmt.Fprintf(&s, "Tasks: %d | Shortcuts: %d | Todos: %d\n",
		m.Snapshot.Tasks, m.Snapshot.Shortcuts, m.Snapshot.Todos)
	s.WriteString("\nq:quit s:sync ?:help")
	return m.truncateLines(s.String())
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("tock sync")
	return m.truncate(title + "  " + m.statusLine())
}

// statusLine shows the current board message, with a spinner while syncing
func (m Model) statusLine() string {
	switch {
	case m.Syncing():
		return m.Spinner.View() + " " + formatMessage(m.Current)
	case m.Current.Empty():
		return subtleStyle.Render("idle")
	default:
		return formatMessage(m.Current)
	}
}

func (m Model) renderAccountPanel() string {
	var lines []string
	snap := m.Snapshot

	if snap.Email == "" {
		lines = append(lines, subtleStyle.Render("not logged in"))
	} else {
		lines = append(lines,
			fmt.Sprintf("Account:   %s", snap.Email),
			fmt.Sprintf("Server:    %s", snap.Server),
		)
	}
	if snap.State != "" {
		lines = append(lines, fmt.Sprintf("State:     %s", snap.State))
	}

	last := "never"
	if !snap.LastSync.IsZero() {
		last = output.FormatTimeAgo(snap.LastSync)
	}
	next := "incremental"
	if snap.NeedsFullSync {
		next = "full"
	}
	lines = append(lines,
		fmt.Sprintf("Last sync: %s", last),
		fmt.Sprintf("Next sync: %s", next),
		fmt.Sprintf("Records:   %d tasks, %d shortcuts, %d todos", snap.Tasks, snap.Shortcuts, snap.Todos),
	)
	if m.Err != nil {
		lines = append(lines, negativeStyle.Render("error: "+m.Err.Error()))
	}

	return m.panel("SYNC", lines)
}

func (m Model) renderHistoryPanel() string {
	if len(m.History) == 0 {
		return m.panel("RECENT", []string{subtleStyle.Render("no messages yet")})
	}
	lines := make([]string, 0, len(m.History))
	for i := len(m.History) - 1; i >= 0; i-- {
		msg := m.History[i]
		lines = append(lines, timestampStyle.Render(msg.At.Format("15:04:05"))+"  "+formatMessage(msg))
	}
	return m.panel("RECENT", lines)
}

func (m Model) renderFooter() string {
	help := helpStyle.Render(m.Keymap.FooterHint())
	if !m.LastRefresh.IsZero() {
		help += helpStyle.Render("  refreshed " + m.LastRefresh.Format("15:04:05"))
	}
	return m.truncate(help)
}

func (m Model) renderHelp() string {
	return m.panel("HELP", m.Keymap.HelpLines())
}

// panel draws a bordered panel with a title, truncating lines to fit
func (m Model) panel(title string, lines []string) string {
	inner := m.Width - 4
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, inner, "…")
	}
	body := panelTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return panelStyle.Width(m.Width - 2).Render(body)
}

func (m Model) truncate(s string) string {
	return ansi.Truncate(s, m.Width, "…")
}

func (m Model) truncateLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = m.truncate(l)
	}
	return strings.Join(lines, "\n")
}
