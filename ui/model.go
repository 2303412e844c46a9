package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pulse/event"
)

// printLineMsg appends one output line.
type printLineMsg string

// statsMsg refreshes the header counters.
type statsMsg Stats

// maxLines caps the scrollback kept in memory.
const maxLines = 500

// model is the Bubble Tea model for the monitor.
type model struct {
	viewport viewport.Model
	lines    []string
	stats    Stats
	styles   styles
	events   chan<- event.Event
	ready    bool
}

func newModel(events chan<- event.Event) model {
	return model{
		styles: defaultStyles(),
		events: events,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.post(event.Event{Type: event.Control, Control: event.ControlOp{Action: event.ActionQuit}})
			return m, tea.Quit
		case "r":
			m.post(event.Event{Type: event.Control, Control: event.ControlOp{Action: event.ActionReload}})
		}

	case tea.WindowSizeMsg:
		const headerHeight, footerHeight = 1, 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.refreshContent()

	case printLineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
		m.refreshContent()

	case statsMsg:
		m.stats = Stats(msg)
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// post forwards an intent without ever blocking the render loop.
func (m model) post(ev event.Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// View implements tea.Model.
func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := m.styles.header.Render(fmt.Sprintf(
		" pulse  tick %d  queued %d  fired %d  errors %d  dropped %d  up %s",
		m.stats.Ticks, m.stats.Pending, m.stats.Dispatched,
		m.stats.ScriptErrors, m.stats.DroppedEvents, m.stats.Uptime.Truncate(time.Second),
	))
	footer := m.styles.footer.Render(" q quit · r reload")

	return header + "\n" + m.viewport.View() + "\n" + footer
}
