package buffer

import "testing"

func TestUnboundedPreservesOrder(t *testing.T) {
	in, out := Unbounded[int](4, 100, nil)

	for i := 1; i <= 50; i++ {
		in <- i
	}
	close(in)

	want := 1
	for got := range out {
		if got != want {
			t.Fatalf("read %d, want %d", got, want)
		}
		want++
	}
	if want != 51 {
		t.Fatalf("read %d items, want 50", want-1)
	}
}

func TestUnboundedDropsOldestAtLimit(t *testing.T) {
	drops := 0
	in, out := Unbounded[int](4, 3, func() { drops++ })

	// Nothing reads until the writes are done, so the internal queue
	// hits the limit. The small channel buffers hold a few items too;
	// write enough to force drops regardless.
	for i := 1; i <= 30; i++ {
		in <- i
	}
	close(in)

	var got []int
	for v := range out {
		got = append(got, v)
	}

	if drops == 0 {
		t.Fatal("no drops reported above the hard limit")
	}
	if len(got)+drops != 30 {
		t.Fatalf("read %d + dropped %d, want 30 total", len(got), drops)
	}
	// Drop-oldest: whatever survives is a contiguous, in-order tail
	// plus any items that passed through before the queue filled.
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("out of order after drops: %v", got)
		}
	}
	if got[len(got)-1] != 30 {
		t.Fatalf("newest item lost: tail = %d, want 30", got[len(got)-1])
	}
}
