package lua

import glua "github.com/yuin/gopher-lua"

// registerCoreFuncs registers internal pulse._* primitives (wrapped by Lua)
func (e *Engine) registerCoreFuncs() {
	// pulse._print(text): Outputs text to the host display
	e.L.SetField(e.pulseTable, "_print", e.L.NewFunction(func(L *glua.LState) int {
		msg := L.CheckString(1)
		e.host.Print(msg)
		return 0
	}))

	// pulse._quit(): Stop the host loop
	e.L.SetField(e.pulseTable, "_quit", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Quit()
		return 0
	}))

	// pulse._pending(): Number of queued tasks
	e.L.SetField(e.pulseTable, "_pending", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LNumber(e.sched.Len()))
		return 1
	}))
}
