package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"renderscope/internal/app"
)

const refreshInterval = 2 * time.Second

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Status() (app.AgentStatus, error)
	State(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	Components(ctx context.Context, params app.ComponentsParams) ([]app.Component, error)
	StartRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	StopRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	ClearEvents(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller

	list       list.Model
	components []app.Component

	agentStatus app.AgentStatus
	recording   app.RecordingState
	statusMsg   string

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Components"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		list:       lst,
		statusMsg:  "Checking agent status…",
		loading:    true,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller) error {
	m := New(ctrl)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(checkAgentStatusCmd(m.controller), loadSnapshotCmd(m.controller), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 5 {
			m.list.SetSize(msg.Width, msg.Height-5)
		}

	case agentStatusMsg:
		m.agentStatus = msg.status
		if msg.status.Running {
			m.statusMsg = fmt.Sprintf("Agent running at %s. Press r to refresh, q to quit.", msg.status.Addr)
		} else {
			m.statusMsg = fmt.Sprintf("Agent is not reachable at %s.", msg.status.Addr)
			m.components = nil
			m.list.SetItems(nil)
		}

	case snapshotLoadedMsg:
		m.loading = false
		m.err = nil
		m.components = msg.components
		m.recording = msg.state
		items := make([]list.Item, 0, len(msg.components))
		for _, c := range msg.components {
			items = append(items, componentItem{Component: c})
		}
		m.list.SetItems(items)
		m.lastUpdated = time.Now()

	case recordingChangedMsg:
		m.recording = msg.state
		return m, loadSnapshotCmd(m.controller)

	case tickMsg:
		if m.agentStatus.Running {
			return m, tea.Batch(loadSnapshotCmd(m.controller), tickCmd())
		}
		return m, tea.Batch(checkAgentStatusCmd(m.controller), tickCmd())

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, tea.Batch(checkAgentStatusCmd(m.controller), loadSnapshotCmd(m.controller))
		case "s":
			if m.recording.Recording {
				return m, stopRecordingCmd(m.controller)
			}
			return m, startRecordingCmd(m.controller)
		case "c":
			return m, clearEventsCmd(m.controller)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true)
	if !m.agentStatus.Running {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	} else {
		statusStyle = statusStyle.Foreground(lipgloss.Color("42"))
	}
	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')

	recLine := "recording: off"
	if m.recording.Recording {
		recLine = fmt.Sprintf("recording: on • events=%d batches=%d cap=%d", m.recording.EventCount, m.recording.BatchCount, m.recording.Cap)
	}
	recStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	b.WriteString(recStyle.Render(recLine))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading components…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil && m.agentStatus.Running {
		b.WriteString("No components tracked.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	if current := m.currentComponent(); current != nil {
		detailStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1)
		b.WriteString(detailStyle.Render(componentDetail(current)))
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload • s toggle recording • c clear events"
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// componentItem adapts app.Component to the bubbles list item interface.
type componentItem struct {
	Component app.Component
}

func (c componentItem) Title() string {
	id := "pending"
	if c.Component.ID != nil {
		id = fmt.Sprintf("id=%d", *c.Component.ID)
	}
	return fmt.Sprintf("[%s] %s (%s)", id, c.Component.Type.Name, c.Component.Mode)
}

func (c componentItem) Description() string {
	parent := "-"
	if c.Component.ParentID != nil {
		parent = fmt.Sprintf("%d", *c.Component.ParentID)
	}
	renders := "-"
	if m := c.Component.Metrics; m != nil {
		renders = fmt.Sprintf("%d (avg %s)", m.Render.Count, avgOrDash(m.Render.Average))
	}
	return fmt.Sprintf("parent=%s renders=%s full=%s", parent, renders, c.Component.Type.FullName)
}

func (c componentItem) FilterValue() string {
	return fmt.Sprintf("%s %s", c.Component.Type.Name, c.Component.Type.FullName)
}

func componentDetail(c *app.Component) string {
	var b strings.Builder
	id := "pending"
	if c.ID != nil {
		id = fmt.Sprintf("%d", *c.ID)
	}
	fmt.Fprintf(&b, "id=%s mode=%s type=%s", id, c.Mode, c.Type.FullName)
	m := c.Metrics
	if m == nil {
		b.WriteString("\nmetrics: unavailable")
		return b.String()
	}
	fmt.Fprintf(&b, "\nrenders=%d min=%s max=%s avg=%s",
		m.Render.Count, nsOrDash(m.RenderMin), nsOrDash(m.RenderMax), avgOrDash(m.Render.Average))
	fmt.Fprintf(&b, "\nttfr=%s lifetime=%s", nsOrDash(m.TimeToFirstRender), time.Duration(m.Lifetime).Round(time.Millisecond))
	fmt.Fprintf(&b, "\ninvalidations=%d suppressed=%d/%d efficiency=%s rpm=%s",
		m.Invalidations, m.SuppressedQueued, m.SuppressedDeclined,
		ratioOrDash(m.InvalidationEfficiency), ratioOrDash(m.RendersPerMinute))
	return b.String()
}

func avgOrDash(ns *int64) string { return nsOrDash(ns) }

func nsOrDash(ns *int64) string {
	if ns == nil {
		return "-"
	}
	return time.Duration(*ns).Round(time.Microsecond).String()
}

func ratioOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func (m *Model) currentComponent() *app.Component {
	if len(m.components) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.components) {
		return nil
	}
	return &m.components[idx]
}

type agentStatusMsg struct {
	status app.AgentStatus
}

type snapshotLoadedMsg struct {
	components []app.Component
	state      app.RecordingState
}

type recordingChangedMsg struct {
	state app.RecordingState
}

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func checkAgentStatusCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctrl.Status()
		if err != nil {
			return errMsg{err}
		}
		return agentStatusMsg{status: status}
	}
}

func loadSnapshotCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		comps, err := ctrl.Components(ctx, app.ComponentsParams{Timeout: 4 * time.Second})
		if err != nil {
			return errMsg{err}
		}
		state, err := ctrl.State(ctx, 4*time.Second)
		if err != nil {
			return errMsg{err}
		}
		return snapshotLoadedMsg{components: comps, state: state}
	}
}

func startRecordingCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		state, err := ctrl.StartRecording(ctx, 4*time.Second)
		if err != nil {
			return errMsg{err}
		}
		return recordingChangedMsg{state: state}
	}
}

func stopRecordingCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		state, err := ctrl.StopRecording(ctx, 4*time.Second)
		if err != nil {
			return errMsg{err}
		}
		return recordingChangedMsg{state: state}
	}
}

func clearEventsCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		state, err := ctrl.ClearEvents(ctx, 4*time.Second)
		if err != nil {
			return errMsg{err}
		}
		return recordingChangedMsg{state: state}
	}
}
