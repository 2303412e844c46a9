package buffer

// Unbounded creates a channel buffer that grows as needed, so producers
// never block on a slow consumer.
// It returns a write-only channel to feed data in, and a read-only
// channel to read data out.
//
// initialCap: the starting size of the backing slice.
// hardLimit: the maximum number of items held before the oldest is
// dropped. Each drop invokes onDrop (may be nil), so the owner can
// surface the loss in its stats rather than lose items silently.
//
// Usage:
//
//	in, out := buffer.Unbounded[event.Event](64, 10000, nil)
//	in <- ev
//	next := <-out
func Unbounded[T any](initialCap, hardLimit int, onDrop func()) (chan<- T, <-chan T) {
	in := make(chan T, 10)  // Small input buffer to reduce context switching
	out := make(chan T, 10) // Small output buffer

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)

		for {
			var next T
			var downstream chan T

			// Enable the 'out' case only if we have data to send.
			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					// Input closed. Flush the remaining queue, then exit.
					for _, item := range queue {
						out <- item
					}
					return
				}

				// Safety valve: if the loop stopped consuming, drop the
				// oldest item rather than grow without bound, and let
				// the owner account for it.
				if len(queue) >= hardLimit {
					queue = queue[1:]
					if onDrop != nil {
						onDrop()
					}
				}

				queue = append(queue, val)

			case downstream <- next:
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
