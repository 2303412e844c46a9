package scheduler

import (
	"time"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// taskKey orders the queue: earliest deadline first, insertion order
// among equal deadlines. The seq survives re-insertion, so ties keep
// their original order after bulk delays and reschedules.
type taskKey struct {
	end time.Time
	seq uint64
}

func compareTaskKeys(a, b taskKey) int {
	if a.end.Before(b.end) {
		return -1
	}
	if a.end.After(b.end) {
		return 1
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

// taskQueue is an ordered multiset of tasks keyed by (deadline, seq).
// It must never be touched while a handler is executing; the scheduler
// enforces that through the TaskContext dispatch protocol.
type taskQueue struct {
	tree *rbt.Tree[taskKey, *task]
}

func newTaskQueue() *taskQueue {
	return &taskQueue{tree: rbt.NewWith[taskKey, *task](compareTaskKeys)}
}

// push inserts the task. O(log n).
func (q *taskQueue) push(t *task) {
	q.tree.Put(taskKey{end: t.end, seq: t.seq}, t)
}

// pop removes and returns the earliest task. Panics when empty.
func (q *taskQueue) pop() *task {
	node := q.tree.Left()
	if node == nil {
		panic("scheduler: pop on empty task queue")
	}
	q.tree.Remove(node.Key)
	return node.Value
}

// first peeks the earliest task. Panics when empty.
func (q *taskQueue) first() *task {
	node := q.tree.Left()
	if node == nil {
		panic("scheduler: first on empty task queue")
	}
	return node.Value
}

func (q *taskQueue) clear() {
	q.tree.Clear()
}

func (q *taskQueue) isEmpty() bool {
	return q.tree.Empty()
}

func (q *taskQueue) size() int {
	return q.tree.Size()
}

// removeIf deletes every task the filter matches. Visits each task
// exactly once.
func (q *taskQueue) removeIf(filter func(*task) bool) {
	var doomed []taskKey
	it := q.tree.Iterator()
	for it.Next() {
		if filter(it.Value()) {
			doomed = append(doomed, it.Key())
		}
	}
	for _, key := range doomed {
		q.tree.Remove(key)
	}
}

// modifyIf re-positions every task the filter matches. The filter may
// mutate the task's deadline; matching tasks are extracted under their
// old key and re-inserted under the new one, which is the only way to
// change the key of an ordered element without breaking the tree.
func (q *taskQueue) modifyIf(filter func(*task) bool) {
	type moved struct {
		key taskKey
		t   *task
	}
	var matches []moved
	it := q.tree.Iterator()
	for it.Next() {
		if filter(it.Value()) {
			matches = append(matches, moved{it.Key(), it.Value()})
		}
	}
	for _, m := range matches {
		q.tree.Remove(m.key)
	}
	for _, m := range matches {
		q.push(m.t)
	}
}
