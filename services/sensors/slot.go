package sensors

import (
	"sync"

	"altruist-go/types"
)

// Slot is the single-capacity mailbox between one sensor task and the
// aggregator. Publishing overwrites any unconsumed reading, so memory per
// sensor stays O(1). The sequence number lets the single consumer tell a
// fresh reading from one it has already seen.
type Slot struct {
	mu  sync.Mutex
	r   types.Reading
	seq uint64
}

// Publish stores r, replacing whatever was there.
func (s *Slot) Publish(r types.Reading) {
	s.mu.Lock()
	s.r = r
	s.seq++
	s.mu.Unlock()
}

// Peek returns the current reading and its sequence number without
// consuming it. ok is false until the first publish. Never blocks.
func (s *Slot) Peek() (r types.Reading, seq uint64, ok bool) {
	s.mu.Lock()
	r, seq = s.r, s.seq
	s.mu.Unlock()
	return r, seq, seq > 0
}
