package lua

import (
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/pulse/scheduler"
)

// toDuration converts Lua number seconds to Go duration
func toDuration(seconds glua.LNumber) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}

// optGroup reads an optional group argument at position n.
func optGroup(L *glua.LState, n int) (scheduler.Group, bool) {
	if L.GetTop() < n || L.Get(n) == glua.LNil {
		return 0, false
	}
	return scheduler.Group(L.CheckInt(n)), true
}

// registerSchedFuncs registers pulse._* scheduling primitives.
func (e *Engine) registerSchedFuncs() {
	set := func(name string, fn glua.LGFunction) {
		e.L.SetField(e.pulseTable, name, e.L.NewFunction(fn))
	}

	// pulse._schedule(seconds, callback [, group]): One-shot task. The
	// callback receives a task context and may repeat it.
	set("_schedule", func(L *glua.LState) int {
		d := toDuration(L.CheckNumber(1))
		fn := L.CheckFunction(2)
		if group, ok := optGroup(L, 3); ok {
			e.sched.ScheduleGroup(d, group, e.handlerFor(fn))
		} else {
			e.sched.Schedule(d, e.handlerFor(fn))
		}
		return 0
	})

	// pulse._schedule_between(min, max, callback [, group]): One-shot
	// task with a uniformly drawn delay.
	set("_schedule_between", func(L *glua.LState) int {
		min := toDuration(L.CheckNumber(1))
		max := toDuration(L.CheckNumber(2))
		fn := L.CheckFunction(3)
		if group, ok := optGroup(L, 4); ok {
			e.sched.ScheduleGroupBetween(min, max, group, e.handlerFor(fn))
		} else {
			e.sched.ScheduleBetween(min, max, e.handlerFor(fn))
		}
		return 0
	})

	// pulse._async(callback): Run once at the next tick
	set("_async", func(L *glua.LState) int {
		fn := L.CheckFunction(1)
		e.sched.Async(func() { e.invokeAsync(fn) })
		return 0
	})

	// pulse._cancel_all(): Drop every queued task
	set("_cancel_all", func(L *glua.LState) int {
		e.sched.CancelAll()
		return 0
	})

	// pulse._cancel_group(group): Drop every task in the group
	set("_cancel_group", func(L *glua.LState) int {
		e.sched.CancelGroup(scheduler.Group(L.CheckInt(1)))
		return 0
	})

	// pulse._delay_all(seconds): Push every deadline back
	set("_delay_all", func(L *glua.LState) int {
		e.sched.DelayAll(toDuration(L.CheckNumber(1)))
		return 0
	})

	// pulse._delay_group(group, seconds)
	set("_delay_group", func(L *glua.LState) int {
		group := scheduler.Group(L.CheckInt(1))
		e.sched.DelayGroup(group, toDuration(L.CheckNumber(2)))
		return 0
	})

	// pulse._reschedule_all(seconds): Move every task to now+seconds
	set("_reschedule_all", func(L *glua.LState) int {
		e.sched.RescheduleAll(toDuration(L.CheckNumber(1)))
		return 0
	})

	// pulse._reschedule_group(group, seconds)
	set("_reschedule_group", func(L *glua.LState) int {
		group := scheduler.Group(L.CheckInt(1))
		e.sched.RescheduleGroup(group, toDuration(L.CheckNumber(2)))
		return 0
	})
}
