package scheduler

import (
	"math/rand/v2"
	"time"
)

// Clock supplies the scheduler's time points. Any monotonic,
// non-decreasing source satisfies the contract; the default reads
// time.Now, whose values carry Go's monotonic reading.
type Clock func() time.Time

// RandFunc draws a uniform duration in [min, max]. The scheduler only
// consults it for the Between variants; swap it out for deterministic
// tests.
type RandFunc func(min, max time.Duration) time.Duration

// uniformDuration is the default RandFunc.
func uniformDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}
