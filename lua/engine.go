package lua

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/drake/pulse/scheduler"
)

//go:embed core/*.lua
var CoreScripts embed.FS

// Engine wraps gopher-lua and manages the VM lifecycle.
// It is a pure mechanism: it knows how to run Lua code and expose the
// scheduler API. It does NOT know about boot order or script locations.
type Engine struct {
	L *glua.LState

	// The scheduler driven by script-created tasks. Owned by the
	// session; the engine only issues calls against it.
	sched *scheduler.Scheduler

	// Host interface for communication with the rest of the system
	host Host

	// Compiled chunk cache keyed by absolute path. Reloads re-run the
	// same files; compiling each once is enough.
	chunks *lru.Cache[string, *glua.FunctionProto]

	// Cached table reference
	pulseTable *glua.LTable

	// Script errors reported through the host
	errors uint64
}

// NewEngine creates an Engine bound to the given scheduler and Host.
func NewEngine(sched *scheduler.Scheduler, host Host) *Engine {
	chunks, _ := lru.New[string, *glua.FunctionProto](64)
	return &Engine{
		sched:  sched,
		host:   host,
		chunks: chunks,
	}
}

// --- Lifecycle ---

// Init initializes (or re-initializes) the Lua VM with fresh state,
// registers the API, and runs the embedded core scripts.
func (e *Engine) Init() error {
	// Close old Lua state if it exists
	if e.L != nil {
		e.L.Close()
	}

	// Create fresh Lua state
	e.L = glua.NewState()

	// Register custom types
	registerContextType(e.L)

	// Register API functions
	e.registerAPIs()

	return e.loadCoreScripts()
}

// Close cleans up the Lua state.
func (e *Engine) Close() {
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// Errors returns the number of script errors reported so far.
func (e *Engine) Errors() uint64 {
	return e.errors
}

func (e *Engine) loadCoreScripts() error {
	entries, err := CoreScripts.ReadDir("core")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files) // consistent load order

	for _, file := range files {
		content, err := CoreScripts.ReadFile("core/" + file)
		if err != nil {
			return err
		}
		if err := e.DoString(file, string(content)); err != nil {
			return fmt.Errorf("core script %s: %w", file, err)
		}
	}
	return nil
}

// --- Execution Primitives (Mechanism) ---

// DoString executes a raw string of Lua code.
// The name parameter is used for stack traces.
func (e *Engine) DoString(name, code string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a Lua file, compiling it through the chunk cache.
func (e *Engine) DoFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	proto, ok := e.chunks.Get(abs)
	if !ok {
		src, err := os.ReadFile(abs)
		if err != nil {
			return err
		}
		chunk, err := parse.Parse(strings.NewReader(string(src)), abs)
		if err != nil {
			return err
		}
		compiled, err := glua.Compile(chunk, abs)
		if err != nil {
			return err
		}
		e.chunks.Add(abs, compiled)
		proto = compiled
	}

	e.L.Push(e.L.NewFunctionFromProto(proto))
	return e.L.PCall(0, 0, nil)
}

// LoadScripts runs user scripts in order.
func (e *Engine) LoadScripts(paths []string) error {
	for _, path := range paths {
		if err := e.DoFile(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// --- Callback execution ---

// handlerFor adapts a Lua function into a scheduler handler.
func (e *Engine) handlerFor(fn *glua.LFunction) scheduler.TaskHandler {
	return func(ctx scheduler.TaskContext) {
		e.invokeHandler(fn, ctx)
	}
}

// invokeHandler runs a Lua task handler under a protected call. Script
// errors are reported through the Host; they never unwind the
// scheduler's dispatch loop.
func (e *Engine) invokeHandler(fn *glua.LFunction, ctx scheduler.TaskContext) {
	if e.L == nil {
		return
	}
	e.L.Push(fn)
	e.L.Push(e.wrapContext(ctx))
	if err := e.L.PCall(1, 0, nil); err != nil {
		e.errors++
		e.host.Print("[script error] " + err.Error())
	}
}

// invokeAsync runs an async Lua callable under a protected call.
func (e *Engine) invokeAsync(fn *glua.LFunction) {
	if e.L == nil {
		return
	}
	e.L.Push(fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		e.errors++
		e.host.Print("[script error] " + err.Error())
	}
}

// --- API Registration ---

func (e *Engine) registerAPIs() {
	e.pulseTable = e.L.NewTable()
	e.L.SetGlobal("pulse", e.pulseTable)

	e.registerCoreFuncs()
	e.registerSchedFuncs()
}
