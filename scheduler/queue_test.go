package scheduler

import (
	"testing"
	"time"
)

func at(msec int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(msec) * time.Millisecond)
}

func newQueueTask(endMsec int, seq uint64) *task {
	return &task{end: at(endMsec), seq: seq, handler: func(TaskContext) {}}
}

func TestQueuePopOrder(t *testing.T) {
	q := newTaskQueue()

	ends := []int{70, 10, 40, 90, 20, 40, 5, 100, 40, 1}
	for i, end := range ends {
		q.push(newQueueTask(end, uint64(i+1)))
	}

	if q.size() != len(ends) {
		t.Fatalf("size = %d, want %d", q.size(), len(ends))
	}

	prev := time.Time{}
	for !q.isEmpty() {
		first := q.first()
		popped := q.pop()
		if popped != first {
			t.Fatal("pop did not return the peeked task")
		}
		if popped.end.Before(prev) {
			t.Fatalf("pop order regressed: %v before %v", popped.end, prev)
		}
		prev = popped.end
	}
}

func TestQueueEqualDeadlinesKeepInsertionOrder(t *testing.T) {
	q := newTaskQueue()
	for seq := uint64(1); seq <= 5; seq++ {
		q.push(newQueueTask(50, seq))
	}

	for want := uint64(1); want <= 5; want++ {
		got := q.pop()
		if got.seq != want {
			t.Fatalf("pop seq = %d, want %d", got.seq, want)
		}
	}
}

func TestQueueRemoveIf(t *testing.T) {
	q := newTaskQueue()
	for seq := uint64(1); seq <= 6; seq++ {
		q.push(newQueueTask(int(seq)*10, seq))
	}

	visited := 0
	q.removeIf(func(tk *task) bool {
		visited++
		return tk.seq%2 == 0
	})

	if visited != 6 {
		t.Fatalf("removeIf visited %d tasks, want 6", visited)
	}
	if q.size() != 3 {
		t.Fatalf("size after removeIf = %d, want 3", q.size())
	}
	for !q.isEmpty() {
		if tk := q.pop(); tk.seq%2 == 0 {
			t.Fatalf("task %d should have been removed", tk.seq)
		}
	}
}

func TestQueueModifyIfRepositions(t *testing.T) {
	q := newTaskQueue()
	a := newQueueTask(10, 1)
	b := newQueueTask(20, 2)
	c := newQueueTask(30, 3)
	q.push(a)
	q.push(b)
	q.push(c)

	// Push a past everything else; the queue must re-sort it.
	q.modifyIf(func(tk *task) bool {
		if tk != a {
			return false
		}
		tk.end = at(100)
		return true
	})

	if got := q.pop(); got != b {
		t.Fatalf("first pop = seq %d, want seq %d", got.seq, b.seq)
	}
	if got := q.pop(); got != c {
		t.Fatalf("second pop = seq %d, want seq %d", got.seq, c.seq)
	}
	if got := q.pop(); got != a {
		t.Fatalf("third pop = seq %d, want seq %d", got.seq, a.seq)
	}
}

func TestQueueClear(t *testing.T) {
	q := newTaskQueue()
	q.push(newQueueTask(10, 1))
	q.push(newQueueTask(20, 2))

	q.clear()
	if !q.isEmpty() || q.size() != 0 {
		t.Fatal("queue not empty after clear")
	}
}

func TestQueuePopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("pop on empty queue did not panic")
		}
	}()
	newTaskQueue().pop()
}

func TestQueueFirstEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("first on empty queue did not panic")
		}
	}()
	newTaskQueue().first()
}
