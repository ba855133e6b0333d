package stream

import "sync/atomic"

// Sequencer owns the session epoch. The cancellation path advances it;
// the pump stamps items with it and the feeder drops anything stamped
// with an earlier value. Reads never block.
type Sequencer struct {
	epoch atomic.Int64
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Current returns the epoch items must carry to be consumable.
func (s *Sequencer) Current() int64 {
	return s.epoch.Load()
}

// Advance invalidates every item stamped with a prior epoch and returns
// the new one. Called exactly once per cancellation.
func (s *Sequencer) Advance() int64 {
	return s.epoch.Add(1)
}

// Stale reports whether an item stamped with epoch e must be dropped.
func (s *Sequencer) Stale(e int64) bool {
	return e < s.epoch.Load()
}
