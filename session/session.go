// Package session owns the simulation loop: one scheduler, one Lua
// engine, one goroutine advancing both.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/drake/pulse/config"
	"github.com/drake/pulse/event"
	"github.com/drake/pulse/internal/buffer"
	"github.com/drake/pulse/lua"
	"github.com/drake/pulse/scheduler"
	"github.com/drake/pulse/ui"
)

// Ensure Session implements lua.Host at compile time
var _ lua.Host = (*Session)(nil)

// Config holds session configuration
type Config struct {
	TickRate time.Duration // Real time between scheduler updates
	Scripts  []string      // User scripts loaded at boot
}

// Session orchestrates the scheduler, the Lua engine, and the UI.
// Scheduler and engine calls never overlap: boot runs before the loop
// starts, every later call happens on the loop goroutine, and Run closes
// both only after the loop has exited. The UI and other producers reach
// the loop through the event buffer.
type Session struct {
	// Components
	sched  *scheduler.Scheduler
	engine *lua.Engine
	ui     ui.UI

	// Control events into the loop (unbounded so producers never block)
	eventsIn  chan<- event.Event
	eventsOut <-chan event.Event
	dropped   atomic.Uint64 // events shed by the buffer's safety valve

	// Config (retained for reload)
	config Config

	// Counters, guarded for monitor reads from other goroutines
	statsMu sync.Mutex
	stats   ui.Stats
	start   time.Time

	// Shutdown coordination
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Session. The loop does not start here; only the event
// buffer's internal goroutine does.
func New(u ui.UI, cfg Config) *Session {
	if cfg.TickRate <= 0 {
		cfg.TickRate = config.DefaultTickRate
	}

	s := &Session{
		ui:     u,
		sched:  scheduler.New(),
		config: cfg,
		done:   make(chan struct{}),
	}

	// Dropped events surface in Stats instead of vanishing.
	s.eventsIn, s.eventsOut = buffer.Unbounded[event.Event](64, 10000, func() {
		s.dropped.Add(1)
	})

	s.engine = lua.NewEngine(s.sched, s)

	return s
}

// Run starts the session and blocks until the UI exits.
func (s *Session) Run() error {
	defer s.engine.Close()
	defer s.sched.Close()

	// Boot the system
	if err := s.boot(); err != nil {
		s.ui.Print("[boot error] " + err.Error())
	}

	// Bridge UI intents into the loop
	go func() {
		for ev := range s.ui.Events() {
			s.Post(ev)
		}
	}()

	// Start the loop
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.loop()
	}()

	// Block on UI, then wait for the loop before the deferred closes run
	err := s.ui.Run()
	s.Close()
	<-loopDone
	return err
}

// Post queues a control event for the loop. Safe from any goroutine.
func (s *Session) Post(ev event.Event) {
	s.eventsIn <- ev
}

// Stats returns a snapshot of the loop counters.
func (s *Session) Stats() ui.Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Close stops the loop. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.ui.Quit()
	})
}

// boot initializes the Lua VM and loads user scripts.
func (s *Session) boot() error {
	if err := s.engine.Init(); err != nil {
		return err
	}
	return s.engine.LoadScripts(s.config.Scripts)
}

// loop owns the scheduler: real-time ticks plus control events.
func (s *Session) loop() {
	s.start = time.Now()
	ticker := time.NewTicker(s.config.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		case ev, ok := <-s.eventsOut:
			if !ok {
				return
			}
			s.handleEvent(ev)
		}
	}
}

// tick advances the scheduler and publishes fresh counters.
func (s *Session) tick() {
	s.sched.Update(nil)

	s.statsMu.Lock()
	s.stats = ui.Stats{
		Ticks:         s.stats.Ticks + 1,
		Pending:       s.sched.Len(),
		Dispatched:    s.sched.Dispatched(),
		ScriptErrors:  s.engine.Errors(),
		DroppedEvents: s.dropped.Load(),
		Uptime:        time.Since(s.start),
	}
	snapshot := s.stats
	s.statsMu.Unlock()

	s.ui.SetStats(snapshot)
}

func (s *Session) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.Async:
		if ev.Callback != nil {
			ev.Callback()
		}

	case event.Control:
		switch ev.Control.Action {
		case event.ActionQuit:
			s.Close()

		case event.ActionReload:
			s.sched.CancelAll()
			if err := s.boot(); err != nil {
				s.ui.Print("[reload error] " + err.Error())
				break
			}
			s.ui.Print("[reloaded]")

		case event.ActionLoad:
			if err := s.engine.DoFile(ev.Control.ScriptPath); err != nil {
				s.ui.Print("[load error] " + err.Error())
			}
		}
	}
}
