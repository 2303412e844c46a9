// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/drake/pulse/session"
)

// Enabled returns true if debug mode is active (PULSE_DEBUG=1).
func Enabled() bool {
	return os.Getenv("PULSE_DEBUG") == "1"
}

// Monitor periodically logs loop statistics when debug mode is enabled.
type Monitor struct {
	session  *session.Session
	interval time.Duration
	ctx      context.Context
	logger   *log.Logger
}

// NewMonitor creates a new monitor for the given session.
// If debug mode is not enabled, returns nil.
func NewMonitor(ctx context.Context, s *session.Session) *Monitor {
	if !Enabled() {
		return nil
	}

	return &Monitor{
		session:  s,
		interval: 5 * time.Second,
		ctx:      ctx,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Println("[DEBUG] Monitor started")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Println("[DEBUG] Monitor stopped")
			return
		case <-ticker.C:
			st := m.session.Stats()
			m.logger.Printf("[DEBUG] ticks=%d queued=%d fired=%d script_errors=%d dropped=%d up=%s",
				st.Ticks, st.Pending, st.Dispatched, st.ScriptErrors, st.DroppedEvents, st.Uptime.Truncate(time.Second))
		}
	}
}
