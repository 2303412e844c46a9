package lua

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/pulse/scheduler"
)

// setupTest builds an engine on a pinned clock, so only Advance moves
// virtual time.
func setupTest(t *testing.T) (*Engine, *MockHost, *scheduler.Scheduler) {
	t.Helper()

	epoch := time.Unix(0, 0)
	sched := scheduler.NewWithClock(func() time.Time { return epoch })
	host := NewMockHost()
	engine := NewEngine(sched, host)
	if err := engine.Init(); err != nil {
		t.Fatal("Failed to initialize engine:", err)
	}
	t.Cleanup(engine.Close)

	return engine, host, sched
}

func doString(t *testing.T, engine *Engine, code string) {
	t.Helper()
	if err := engine.DoString("test", code); err != nil {
		t.Fatalf("Failed to execute test Lua: %v", err)
	}
}

func globalNumber(t *testing.T, engine *Engine, name string) float64 {
	t.Helper()
	num, ok := engine.L.GetGlobal(name).(glua.LNumber)
	if !ok {
		t.Fatalf("global %q is not a number", name)
	}
	return float64(num)
}

func TestScheduleFromScript(t *testing.T) {
	engine, host, sched := setupTest(t)

	doString(t, engine, `
		pulse.schedule(0.05, function(ctx)
			pulse.print("fired " .. ctx:counter())
		end)
	`)

	sched.Advance(49*time.Millisecond, nil)
	if calls := host.DrainPrintCalls(); len(calls) != 0 {
		t.Fatalf("prints before deadline: %v", calls)
	}

	sched.Advance(1*time.Millisecond, nil)
	calls := host.DrainPrintCalls()
	if len(calls) != 1 || calls[0] != "fired 0" {
		t.Fatalf("prints = %v, want [fired 0]", calls)
	}
}

func TestEveryRepeats(t *testing.T) {
	engine, _, sched := setupTest(t)

	doString(t, engine, `
		count = 0
		pulse.every(0.01, function()
			count = count + 1
		end)
	`)

	sched.Advance(35*time.Millisecond, nil)
	if got := globalNumber(t, engine, "count"); got != 3 {
		t.Fatalf("count = %v after 35ms of 10ms repeats, want 3", got)
	}
}

func TestEveryStopsOnFalse(t *testing.T) {
	engine, _, sched := setupTest(t)

	doString(t, engine, `
		count = 0
		pulse.every(0.01, function()
			count = count + 1
			if count >= 2 then
				return false
			end
		end)
	`)

	sched.Advance(100*time.Millisecond, nil)
	if got := globalNumber(t, engine, "count"); got != 2 {
		t.Fatalf("count = %v, want 2 (callback returned false)", got)
	}
	if sched.Len() != 0 {
		t.Fatalf("queue len = %d after the repeat stopped, want 0", sched.Len())
	}
}

func TestCancelGroupFromScript(t *testing.T) {
	engine, host, sched := setupTest(t)

	doString(t, engine, `
		pulse.schedule(0.05, function() pulse.print("cancelled") end, 7)
		pulse.schedule(0.07, function() pulse.print("kept") end, 8)
		pulse.cancel_group(7)
	`)

	sched.Advance(100*time.Millisecond, nil)
	calls := host.DrainPrintCalls()
	if len(calls) != 1 || calls[0] != "kept" {
		t.Fatalf("prints = %v, want [kept]", calls)
	}
}

func TestContextAsyncIsDeferred(t *testing.T) {
	engine, _, sched := setupTest(t)

	doString(t, engine, `
		hits = 0
		pulse.schedule(0.01, function(ctx)
			ctx:async(function() hits = hits + 1 end)
		end)
	`)

	sched.Advance(10*time.Millisecond, nil)
	if got := globalNumber(t, engine, "hits"); got != 0 {
		t.Fatalf("hits = %v on the firing tick, want 0", got)
	}

	sched.Advance(0, nil)
	if got := globalNumber(t, engine, "hits"); got != 1 {
		t.Fatalf("hits = %v on the next tick, want 1", got)
	}
}

func TestContextScheduleIsDeferred(t *testing.T) {
	engine, host, sched := setupTest(t)

	doString(t, engine, `
		pulse.schedule(0.01, function(ctx)
			ctx:schedule(0, function() pulse.print("inner") end)
		end)
	`)

	sched.Advance(10*time.Millisecond, nil)
	if calls := host.DrainPrintCalls(); len(calls) != 0 {
		t.Fatalf("prints on the firing tick: %v", calls)
	}

	sched.Advance(0, nil)
	calls := host.DrainPrintCalls()
	if len(calls) != 1 || calls[0] != "inner" {
		t.Fatalf("prints = %v, want [inner]", calls)
	}
}

func TestAgainAfterFromScript(t *testing.T) {
	engine, _, sched := setupTest(t)

	doString(t, engine, `
		count = 0
		pulse.schedule(0.01, function(ctx)
			count = count + 1
			if ctx:counter() == 0 then
				ctx:again_after(0.03)
			end
		end)
	`)

	sched.Advance(10*time.Millisecond, nil)
	sched.Advance(29*time.Millisecond, nil)
	if got := globalNumber(t, engine, "count"); got != 1 {
		t.Fatalf("count = %v before the repeat deadline, want 1", got)
	}

	sched.Advance(1*time.Millisecond, nil)
	if got := globalNumber(t, engine, "count"); got != 2 {
		t.Fatalf("count = %v at the repeat deadline, want 2", got)
	}
}

func TestScriptErrorIsReported(t *testing.T) {
	engine, host, sched := setupTest(t)

	doString(t, engine, `pulse.schedule(0.01, function() error("boom") end)`)

	sched.Advance(10*time.Millisecond, nil)

	calls := host.DrainPrintCalls()
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "[script error]") {
		t.Fatalf("prints = %v, want one [script error] line", calls)
	}
	if engine.Errors() != 1 {
		t.Fatalf("Errors() = %d, want 1", engine.Errors())
	}

	// The scheduler keeps running after a script error.
	doString(t, engine, `pulse.schedule(0.01, function() pulse.print("ok") end)`)
	sched.Advance(10*time.Millisecond, nil)
	if calls := host.DrainPrintCalls(); len(calls) != 1 || calls[0] != "ok" {
		t.Fatalf("prints = %v after the error, want [ok]", calls)
	}
}

func TestQuitFromScript(t *testing.T) {
	engine, host, _ := setupTest(t)

	doString(t, engine, `pulse.quit()`)
	if !host.QuitCalled {
		t.Fatal("pulse.quit() did not reach the host")
	}
}

func TestPendingFromScript(t *testing.T) {
	engine, _, _ := setupTest(t)

	doString(t, engine, `
		pulse.schedule(1, function() end)
		pulse.schedule(2, function() end)
		n = pulse.pending()
	`)

	if got := globalNumber(t, engine, "n"); got != 2 {
		t.Fatalf("pulse.pending() = %v, want 2", got)
	}
}

func TestDoFileUsesChunkCache(t *testing.T) {
	engine, _, _ := setupTest(t)

	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte("runs = (runs or 0) + 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := engine.DoFile(path); err != nil {
		t.Fatal(err)
	}
	if err := engine.DoFile(path); err != nil {
		t.Fatal(err)
	}
	if got := globalNumber(t, engine, "runs"); got != 2 {
		t.Fatalf("runs = %v, want 2", got)
	}

	// The compiled chunk is cached by path: rewriting the file does not
	// change what runs.
	if err := os.WriteFile(path, []byte("runs = 100"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := engine.DoFile(path); err != nil {
		t.Fatal(err)
	}
	if got := globalNumber(t, engine, "runs"); got != 3 {
		t.Fatalf("runs = %v after rewrite, want 3 (cached chunk)", got)
	}
}

func TestInitResetsState(t *testing.T) {
	engine, _, _ := setupTest(t)

	doString(t, engine, `leftover = 42`)
	if err := engine.Init(); err != nil {
		t.Fatal("re-init:", err)
	}

	if engine.L.GetGlobal("leftover") != glua.LNil {
		t.Fatal("globals survived re-init")
	}

	// The API is registered again on the fresh state.
	doString(t, engine, `pulse.print("alive")`)
}
