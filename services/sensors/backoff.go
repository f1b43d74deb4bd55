package sensors

import "time"

// Backoff tracks consecutive failures for one sensor and yields the delay
// before the next attempt: base on the first failure, doubling up to cap.
// Owned by a single task; never shared.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration

	fails int
	cur   time.Duration
}

// Next registers a failure and returns the delay to apply before retrying.
func (b *Backoff) Next() time.Duration {
	if b.Base <= 0 {
		b.Base = time.Second
	}
	if b.Cap < b.Base {
		b.Cap = b.Base
	}
	if b.fails == 0 {
		b.cur = b.Base
	} else if b.cur < b.Cap {
		b.cur *= 2
		if b.cur > b.Cap {
			b.cur = b.Cap
		}
	}
	b.fails++
	return b.cur
}

// Reset clears the failure streak after a success.
func (b *Backoff) Reset() {
	b.fails = 0
	b.cur = 0
}

// Failures returns the current consecutive failure count.
func (b *Backoff) Failures() int { return b.fails }
