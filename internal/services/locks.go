package services

import "sync"

// RoundLocks serializes all state transitions for a given round id: a
// record racing a close resolves deterministically, and settlement reads
// aggregates without a bet slipping in between. Cross-round operations
// take independent locks.
type RoundLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewRoundLocks creates an empty lock set
func NewRoundLocks() *RoundLocks {
	return &RoundLocks{locks: make(map[int]*sync.Mutex)}
}

// Lock acquires the mutex for a round id, creating it on first use.
// The returned function releases it.
func (r *RoundLocks) Lock(roundID int) func() {
	r.mu.Lock()
	l, ok := r.locks[roundID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roundID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
