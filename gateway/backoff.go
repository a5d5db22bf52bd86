package gateway

import (
	"math/rand"
	"time"
)

// backoff computes reconnect delays: exponential doubling from min up
// to cap, with jitter so a fleet of clients does not reconnect in
// lockstep. Reset on any successful transition to Ready.
type backoff struct {
	min     time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max}
}

// Next returns the delay to wait before the next attempt and advances
// the schedule.
func (b *backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.min
	} else {
		b.current *= 2
		if b.current > b.max {
			b.current = b.max
		}
	}
	// Jitter within [50%, 100%] of the nominal delay.
	half := b.current / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// Reset returns the schedule to the minimum delay.
func (b *backoff) Reset() {
	b.current = 0
}
