package scheduler

import "time"

// Group tags a task for bulk cancel/delay/reschedule operations.
// Multiple tasks may share a group; ungrouped tasks are untouched by
// group operations.
type Group uint32

// TaskHandler is the callback signature for scheduled tasks. The context
// is the only safe way to manipulate the scheduler from inside the
// handler.
type TaskHandler func(TaskContext)

// task is a single scheduled entry. The queue owns it; a firing handler
// borrows it through its TaskContext.
type task struct {
	end      time.Time     // absolute deadline on the virtual clock
	duration time.Duration // nominal interval, the default for Repeat
	group    *Group        // nil = ungrouped
	repeated uint32        // times re-enqueued via Repeat*
	seq      uint64        // insertion order, stable tie-break
	handler  TaskHandler
}

func (t *task) inGroup(group Group) bool {
	return t.group != nil && *t.group == group
}
