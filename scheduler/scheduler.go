// Package scheduler provides a cooperative, tick-driven task scheduler
// for simulation loops. The host advances a virtual clock in discrete
// steps via Update/Advance; due tasks fire in deadline order and receive
// a TaskContext, which buffers re-entrant mutations until the queue is
// safe to touch again.
//
// The scheduler is single-owner: every method must be called from the
// goroutine that runs the tick. There is no locking and no preemption;
// handlers run to completion.
package scheduler

import "time"

// Validator is consulted immediately before each due task fires. A false
// verdict skips the firing for this tick without consuming the task.
type Validator func() bool

// ownerRef is the liveness token shared between a Scheduler and its
// outstanding TaskContexts. Close drops the back pointer, which every
// live context observes as expiry.
type ownerRef struct {
	sched *Scheduler
}

func (r *ownerRef) get() *Scheduler {
	if r == nil {
		return nil
	}
	return r.sched
}

// Scheduler drives time-based callbacks on a host's update tick.
type Scheduler struct {
	ref   *ownerRef
	now   time.Time
	clock Clock
	rand  RandFunc

	queue     *taskQueue
	asyncs    []func()
	validator Validator

	seq        uint64
	dispatched uint64
	inHandler  bool
}

// New creates a scheduler on the system monotonic clock.
func New() *Scheduler {
	return NewWithClock(time.Now)
}

// NewWithClock creates a scheduler on a caller-supplied clock. The
// current clock value becomes the scheduler's initial virtual time.
func NewWithClock(clock Clock) *Scheduler {
	s := &Scheduler{
		now:       clock(),
		clock:     clock,
		rand:      uniformDuration,
		queue:     newTaskQueue(),
		validator: alwaysValid,
	}
	s.ref = &ownerRef{sched: s}
	return s
}

func alwaysValid() bool { return true }

// SetRand replaces the RNG consulted by the Between variants.
func (s *Scheduler) SetRand(r RandFunc) *Scheduler {
	s.rand = r
	return s
}

// SetValidator installs the predicate asked before each due task fires.
func (s *Scheduler) SetValidator(v Validator) *Scheduler {
	s.validator = v
	return s
}

// ClearValidator restores the always-true validator.
func (s *Scheduler) ClearValidator() *Scheduler {
	s.validator = alwaysValid
	return s
}

// Close expires the scheduler. Pending tasks and asyncs are dropped and
// every outstanding TaskContext degrades to a no-op.
func (s *Scheduler) Close() {
	s.ref.sched = nil
	s.queue.clear()
	s.asyncs = nil
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	return s.queue.size()
}

// Dispatched returns the total number of handler invocations so far.
func (s *Scheduler) Dispatched() uint64 {
	return s.dispatched
}

// Update advances the virtual clock to the current clock value and
// dispatches all due work. The optional done callback runs once after
// draining.
func (s *Scheduler) Update(done func()) *Scheduler {
	return s.Advance(s.clock().Sub(s.now), done)
}

// AdvanceMillis advances the virtual clock by a difftime in milliseconds.
func (s *Scheduler) AdvanceMillis(ms int64, done func()) *Scheduler {
	return s.Advance(time.Duration(ms)*time.Millisecond, done)
}

// Advance advances the virtual clock by delta and dispatches all due
// work: queued asyncs first, then due tasks in deadline order.
func (s *Scheduler) Advance(delta time.Duration, done func()) *Scheduler {
	s.now = s.now.Add(delta)

	// Drain asyncs. Entries added during the drain run in the same
	// tick, in insertion order; the drain is a loop, never recursion.
	for len(s.asyncs) > 0 {
		fn := s.asyncs[0]
		s.asyncs = s.asyncs[1:]
		fn()
	}

	// Drain due tasks. A false validator verdict stops the drain
	// without popping, so the vetoed task keeps its deadline and its
	// place in line.
	for !s.queue.isEmpty() && !s.queue.first().end.After(s.now) {
		if !s.validator() {
			break
		}
		s.fire(s.queue.pop())
	}

	if done != nil {
		done()
	}
	return s
}

// fire invokes one task and applies the context's repeat verdict. The
// re-insertion runs deferred so that a Repeat issued before a handler
// panic still holds while the panic unwinds.
func (s *Scheduler) fire(t *task) {
	consumed := false
	ctx := TaskContext{task: t, owner: s.ref, consumed: &consumed}

	s.dispatched++
	s.inHandler = true
	defer func() {
		s.inHandler = false
		if consumed {
			s.queue.push(t)
		}
	}()
	t.handler(ctx)
}

// Async appends a callable invoked once at the start of the next tick.
// It is safe to modify the scheduler from inside the callable.
func (s *Scheduler) Async(fn func()) *Scheduler {
	s.asyncs = append(s.asyncs, fn)
	return s
}

// Schedule inserts a task firing after d, ungrouped.
// Never call this from inside a handler; use TaskContext.Schedule.
func (s *Scheduler) Schedule(d time.Duration, h TaskHandler) *Scheduler {
	s.assertOutsideHandler("Schedule")
	return s.scheduleAt(s.now, d, nil, h)
}

// ScheduleGroup inserts a task firing after d, tagged with group.
// Never call this from inside a handler; use TaskContext.ScheduleGroup.
func (s *Scheduler) ScheduleGroup(d time.Duration, group Group, h TaskHandler) *Scheduler {
	s.assertOutsideHandler("ScheduleGroup")
	g := group
	return s.scheduleAt(s.now, d, &g, h)
}

// ScheduleBetween inserts a task firing after a uniform draw from
// [min, max].
func (s *Scheduler) ScheduleBetween(min, max time.Duration, h TaskHandler) *Scheduler {
	s.assertOutsideHandler("ScheduleBetween")
	return s.scheduleAt(s.now, s.rand(min, max), nil, h)
}

// ScheduleGroupBetween inserts a grouped task firing after a uniform
// draw from [min, max].
func (s *Scheduler) ScheduleGroupBetween(min, max time.Duration, group Group, h TaskHandler) *Scheduler {
	s.assertOutsideHandler("ScheduleGroupBetween")
	g := group
	return s.scheduleAt(s.now, s.rand(min, max), &g, h)
}

// scheduleAt inserts a task with deadline base+d. Context-initiated
// schedules pass the firing task's own deadline as the base, which keeps
// chained schedules drift-free.
func (s *Scheduler) scheduleAt(base time.Time, d time.Duration, group *Group, h TaskHandler) *Scheduler {
	s.seq++
	s.queue.push(&task{
		end:      base.Add(d),
		duration: d,
		group:    group,
		seq:      s.seq,
		handler:  h,
	})
	return s
}

// CancelAll drops every queued task. Queued asyncs are unaffected.
// Never call this from inside a handler; use TaskContext.CancelAll.
func (s *Scheduler) CancelAll() *Scheduler {
	s.assertOutsideHandler("CancelAll")
	s.queue.clear()
	return s
}

// CancelGroup drops every task in the group.
func (s *Scheduler) CancelGroup(group Group) *Scheduler {
	s.assertOutsideHandler("CancelGroup")
	s.queue.removeIf(func(t *task) bool { return t.inGroup(group) })
	return s
}

// CancelGroupsOf drops every task belonging to any of the groups.
func (s *Scheduler) CancelGroupsOf(groups ...Group) *Scheduler {
	s.assertOutsideHandler("CancelGroupsOf")
	set := make(map[Group]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	s.queue.removeIf(func(t *task) bool {
		if t.group == nil {
			return false
		}
		_, ok := set[*t.group]
		return ok
	})
	return s
}

// DelayAll pushes every deadline back by d.
func (s *Scheduler) DelayAll(d time.Duration) *Scheduler {
	s.assertOutsideHandler("DelayAll")
	return s.delayIf(d, everyTask)
}

// DelayAllBetween pushes every deadline back by a single uniform draw
// from [min, max], applied to all tasks.
func (s *Scheduler) DelayAllBetween(min, max time.Duration) *Scheduler {
	s.assertOutsideHandler("DelayAllBetween")
	return s.delayIf(s.rand(min, max), everyTask)
}

// DelayGroup pushes every deadline in the group back by d.
func (s *Scheduler) DelayGroup(group Group, d time.Duration) *Scheduler {
	s.assertOutsideHandler("DelayGroup")
	return s.delayIf(d, func(t *task) bool { return t.inGroup(group) })
}

// DelayGroupBetween pushes every deadline in the group back by a single
// uniform draw from [min, max].
func (s *Scheduler) DelayGroupBetween(group Group, min, max time.Duration) *Scheduler {
	s.assertOutsideHandler("DelayGroupBetween")
	return s.delayIf(s.rand(min, max), func(t *task) bool { return t.inGroup(group) })
}

// RescheduleAll moves every task to now+d and resets its nominal
// duration to d.
func (s *Scheduler) RescheduleAll(d time.Duration) *Scheduler {
	s.assertOutsideHandler("RescheduleAll")
	return s.rescheduleIf(d, everyTask)
}

// RescheduleAllBetween reschedules every task with a single uniform draw
// from [min, max].
func (s *Scheduler) RescheduleAllBetween(min, max time.Duration) *Scheduler {
	s.assertOutsideHandler("RescheduleAllBetween")
	return s.rescheduleIf(s.rand(min, max), everyTask)
}

// RescheduleGroup moves every task in the group to now+d and resets its
// nominal duration to d.
func (s *Scheduler) RescheduleGroup(group Group, d time.Duration) *Scheduler {
	s.assertOutsideHandler("RescheduleGroup")
	return s.rescheduleIf(d, func(t *task) bool { return t.inGroup(group) })
}

// RescheduleGroupBetween reschedules every task in the group with a
// single uniform draw from [min, max].
func (s *Scheduler) RescheduleGroupBetween(group Group, min, max time.Duration) *Scheduler {
	s.assertOutsideHandler("RescheduleGroupBetween")
	return s.rescheduleIf(s.rand(min, max), func(t *task) bool { return t.inGroup(group) })
}

func everyTask(*task) bool { return true }

func (s *Scheduler) delayIf(d time.Duration, match func(*task) bool) *Scheduler {
	s.queue.modifyIf(func(t *task) bool {
		if !match(t) {
			return false
		}
		t.end = t.end.Add(d)
		return true
	})
	return s
}

func (s *Scheduler) rescheduleIf(d time.Duration, match func(*task) bool) *Scheduler {
	end := s.now.Add(d)
	s.queue.modifyIf(func(t *task) bool {
		if !match(t) {
			return false
		}
		t.end = end
		t.duration = d
		return true
	})
	return s
}

func (s *Scheduler) assertOutsideHandler(op string) {
	if s.inHandler {
		panic("scheduler: " + op + " called from inside a task handler; use the TaskContext methods")
	}
}
