package lua

import (
	glua "github.com/yuin/gopher-lua"

	"github.com/drake/pulse/scheduler"
)

const luaContextTypeName = "TaskContext"

// luaContext pairs a firing context with the engine, so deferred
// schedules issued from Lua wrap their callbacks the same way.
type luaContext struct {
	engine *Engine
	ctx    scheduler.TaskContext
}

// registerContextType registers the TaskContext userdata type.
func registerContextType(L *glua.LState) {
	mt := L.NewTypeMetatable(luaContextTypeName)
	L.SetField(mt, "__index", L.NewFunction(contextIndex))
}

// wrapContext boxes a scheduler context for a script callback.
func (e *Engine) wrapContext(ctx scheduler.TaskContext) *glua.LUserData {
	ud := e.L.NewUserData()
	ud.Value = &luaContext{engine: e, ctx: ctx}
	e.L.SetMetatable(ud, e.L.GetTypeMetatable(luaContextTypeName))
	return ud
}

// contextIndex handles method calls on TaskContext userdata. "repeat" is
// a Lua keyword, so repeating is spelled again/again_after/again_between.
func contextIndex(L *glua.LState) int {
	lc := L.CheckUserData(1).Value.(*luaContext)
	method := L.CheckString(2)

	push := func(fn glua.LGFunction) int {
		L.Push(L.NewFunction(fn))
		return 1
	}

	switch method {
	case "again":
		// ctx:again(): repeat with the same duration
		return push(func(L *glua.LState) int {
			lc.ctx.Repeat()
			return 0
		})
	case "again_after":
		// ctx:again_after(seconds): repeat with a new duration
		return push(func(L *glua.LState) int {
			lc.ctx.RepeatAfter(toDuration(L.CheckNumber(2)))
			return 0
		})
	case "again_between":
		// ctx:again_between(min, max): repeat with a drawn duration
		return push(func(L *glua.LState) int {
			lc.ctx.RepeatBetween(toDuration(L.CheckNumber(2)), toDuration(L.CheckNumber(3)))
			return 0
		})
	case "counter":
		// ctx:counter(): 0 on the first firing, k on the k-th repeat
		return push(func(L *glua.LState) int {
			L.Push(glua.LNumber(lc.ctx.GetRepeatCounter()))
			return 1
		})
	case "is_expired":
		return push(func(L *glua.LState) int {
			L.Push(glua.LBool(lc.ctx.IsExpired()))
			return 1
		})
	case "in_group":
		return push(func(L *glua.LState) int {
			L.Push(glua.LBool(lc.ctx.IsInGroup(scheduler.Group(L.CheckInt(2)))))
			return 1
		})
	case "set_group":
		return push(func(L *glua.LState) int {
			lc.ctx.SetGroup(scheduler.Group(L.CheckInt(2)))
			return 0
		})
	case "clear_group":
		return push(func(L *glua.LState) int {
			lc.ctx.ClearGroup()
			return 0
		})
	case "schedule":
		// ctx:schedule(seconds, callback [, group]): buffered insert,
		// applied at the next tick
		return push(func(L *glua.LState) int {
			d := toDuration(L.CheckNumber(2))
			fn := L.CheckFunction(3)
			if group, ok := optGroup(L, 4); ok {
				lc.ctx.ScheduleGroup(d, group, lc.engine.handlerFor(fn))
			} else {
				lc.ctx.Schedule(d, lc.engine.handlerFor(fn))
			}
			return 0
		})
	case "schedule_between":
		return push(func(L *glua.LState) int {
			min := toDuration(L.CheckNumber(2))
			max := toDuration(L.CheckNumber(3))
			fn := L.CheckFunction(4)
			if group, ok := optGroup(L, 5); ok {
				lc.ctx.ScheduleGroupBetween(min, max, group, lc.engine.handlerFor(fn))
			} else {
				lc.ctx.ScheduleBetween(min, max, lc.engine.handlerFor(fn))
			}
			return 0
		})
	case "async":
		return push(func(L *glua.LState) int {
			fn := L.CheckFunction(2)
			lc.ctx.Async(func() { lc.engine.invokeAsync(fn) })
			return 0
		})
	case "cancel_all":
		return push(func(L *glua.LState) int {
			lc.ctx.CancelAll()
			return 0
		})
	case "cancel_group":
		return push(func(L *glua.LState) int {
			lc.ctx.CancelGroup(scheduler.Group(L.CheckInt(2)))
			return 0
		})
	case "delay_all":
		return push(func(L *glua.LState) int {
			lc.ctx.DelayAll(toDuration(L.CheckNumber(2)))
			return 0
		})
	case "delay_group":
		return push(func(L *glua.LState) int {
			group := scheduler.Group(L.CheckInt(2))
			lc.ctx.DelayGroup(group, toDuration(L.CheckNumber(3)))
			return 0
		})
	case "reschedule_all":
		return push(func(L *glua.LState) int {
			lc.ctx.RescheduleAll(toDuration(L.CheckNumber(2)))
			return 0
		})
	case "reschedule_group":
		return push(func(L *glua.LState) int {
			group := scheduler.Group(L.CheckInt(2))
			lc.ctx.RescheduleGroup(group, toDuration(L.CheckNumber(3)))
			return 0
		})
	}

	return 0
}
