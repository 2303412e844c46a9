// Package ui renders loop output. Two implementations: a plain console
// printer and a Bubble Tea monitor.
package ui

import (
	"time"

	"github.com/drake/pulse/event"
)

// Stats is the loop snapshot rendered by monitors.
type Stats struct {
	Ticks         uint64
	Pending       int
	Dispatched    uint64
	ScriptErrors  uint64
	DroppedEvents uint64 // control events shed by the loop's buffer
	Uptime        time.Duration
}

// UI renders loop output and surfaces user intent as events.
type UI interface {
	// Run blocks until the UI exits.
	Run() error

	// Print appends a line of output.
	Print(text string)

	// SetStats refreshes the status display.
	SetStats(Stats)

	// Events delivers user intents (quit, reload) to the session.
	Events() <-chan event.Event

	// Quit asks the UI to exit; Run returns afterwards.
	Quit()
}
