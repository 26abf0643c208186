package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/tock/internal/db"
	"github.com/marcus/tock/internal/status"
)

// historySize is how many recent status messages the monitor keeps
const historySize = 8

// Model is the Bubble Tea model for the sync monitor
type Model struct {
	DB      *db.DB
	StateFn func() string
	Trigger func()
	Status  <-chan status.Message

	// Window dimensions
	Width  int
	Height int

	Snapshot Snapshot
	Current  status.Message
	History  []status.Message
	Spinner  spinner.Model
	Keymap   *Keymap

	// UI state
	ShowHelp    bool
	LastRefresh time.Time
	Err         error

	RefreshInterval time.Duration
}

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 12

// TickMsg triggers a data refresh
type TickMsg time.Time

// RefreshDataMsg carries refreshed data
type RefreshDataMsg struct {
	Snapshot  Snapshot
	Err       error
	Timestamp time.Time
}

// StatusMsg carries a status board update
type StatusMsg status.Message

// NewModel creates a new monitor model
func NewModel(database *db.DB, updates <-chan status.Message, interval time.Duration) Model {
	return Model{
		DB:              database,
		Status:          updates,
		RefreshInterval: interval,
		Keymap:          NewKeymap(DefaultBindings),
		Spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(spinnerStyle),
		),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchData(),
		m.scheduleTick(),
		m.waitForStatus(),
		m.Spinner.Tick,
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetchData(), m.scheduleTick())

	case RefreshDataMsg:
		m.Err = msg.Err
		if msg.Err == nil {
			m.Snapshot = msg.Snapshot
		}
		m.LastRefresh = msg.Timestamp
		return m, nil

	case StatusMsg:
		sm := status.Message(msg)
		m.Current = sm
		cmds := []tea.Cmd{m.waitForStatus()}
		if !sm.Empty() {
			m.History = append(m.History, sm)
			if len(m.History) > historySize {
				m.History = m.History[len(m.History)-historySize:]
			}
			if sm.Text != status.Syncing {
				// A finished sync changes watermark and counts.
				cmds = append(cmds, m.fetchData())
			}
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Keymap == nil {
		return m, nil
	}
	cmd, ok := m.Keymap.Lookup(msg.String())
	if !ok {
		return m, nil
	}

	switch cmd {
	case CmdQuit:
		return m, tea.Quit

	case CmdSync:
		if m.Trigger != nil {
			m.Trigger()
		}
		return m, nil

	case CmdRefresh:
		return m, m.fetchData()

	case CmdToggleHelp:
		m.ShowHelp = !m.ShowHelp
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// Syncing reports whether a sync is currently in flight
func (m Model) Syncing() bool {
	return m.Current.Text == status.Syncing
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchData returns a command that fetches all data and sends a RefreshDataMsg
func (m Model) fetchData() tea.Cmd {
	if m.DB == nil {
		return nil
	}
	return func() tea.Msg {
		return FetchData(m.DB, m.StateFn)
	}
}

// waitForStatus blocks on the next status board update
func (m Model) waitForStatus() tea.Cmd {
	if m.Status == nil {
		return nil
	}
	ch := m.Status
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return StatusMsg(msg)
	}
}
