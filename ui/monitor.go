package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pulse/event"
)

// MonitorUI implements UI using Bubble Tea. It bridges the session's
// push-style calls with the program's model/update/view loop.
type MonitorUI struct {
	program *tea.Program

	// Message queue - buffered channel drained by a single goroutine,
	// so Print/SetStats callers never block on tea.Program.Send.
	msgQueue chan tea.Msg

	events chan event.Event

	// Shutdown coordination
	done     chan struct{}
	doneOnce sync.Once
}

// NewMonitorUI creates a new Bubble Tea-based monitor.
func NewMonitorUI() *MonitorUI {
	return &MonitorUI{
		msgQueue: make(chan tea.Msg, 4096),
		events:   make(chan event.Event, 16),
		done:     make(chan struct{}),
	}
}

// send queues a message for delivery to the Bubble Tea program.
func (m *MonitorUI) send(msg tea.Msg) {
	select {
	case <-m.done:
	case m.msgQueue <- msg:
	}
}

// Print appends a line to the output viewport.
func (m *MonitorUI) Print(text string) {
	m.send(printLineMsg(text))
}

// SetStats refreshes the header counters.
func (m *MonitorUI) SetStats(st Stats) {
	m.send(statsMsg(st))
}

func (m *MonitorUI) Events() <-chan event.Event {
	return m.events
}

// Run starts the TUI and blocks until exit.
func (m *MonitorUI) Run() error {
	m.program = tea.NewProgram(newModel(m.events), tea.WithAltScreen())

	// Single goroutine drains the message queue to Bubble Tea. It can
	// block on Send without affecting producers.
	go func() {
		for {
			select {
			case <-m.done:
				return
			case msg := <-m.msgQueue:
				m.program.Send(msg)
			}
		}
	}()

	_, err := m.program.Run()
	m.Quit()
	return err
}

// Quit stops the program and unblocks Run.
func (m *MonitorUI) Quit() {
	m.doneOnce.Do(func() {
		close(m.done)
		if m.program != nil {
			m.program.Quit()
		}
	})
}
