package ui

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/drake/pulse/event"
)

// ConsoleUI prints lines straight to stdout. Run blocks until Quit or
// an interrupt.
type ConsoleUI struct {
	events   chan event.Event
	done     chan struct{}
	doneOnce sync.Once
}

func NewConsoleUI() *ConsoleUI {
	return &ConsoleUI{
		events: make(chan event.Event, 16),
		done:   make(chan struct{}),
	}
}

func (c *ConsoleUI) Run() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	select {
	case <-c.done:
	case <-interrupt:
	}
	return nil
}

func (c *ConsoleUI) Print(text string) {
	fmt.Println(text)
}

func (c *ConsoleUI) SetStats(Stats) {}

func (c *ConsoleUI) Events() <-chan event.Event {
	return c.events
}

func (c *ConsoleUI) Quit() {
	c.doneOnce.Do(func() { close(c.done) })
}
