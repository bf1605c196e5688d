// Package lock gates transport commands per player.
//
// The engine serializes state changes itself; this gate only keeps one player
// from queueing a second command behind one that has not answered yet.
package lock

import "sync"

// PlayerLock hands out at most one in-flight slot per player.
type PlayerLock struct {
	slots sync.Map // map[int64]*sync.Mutex
}

// NewPlayerLock creates a new PlayerLock instance.
func NewPlayerLock() *PlayerLock {
	return &PlayerLock{}
}

func (pl *PlayerLock) slot(playerID int64) *sync.Mutex {
	if v, ok := pl.slots.Load(playerID); ok {
		return v.(*sync.Mutex)
	}
	actual, _ := pl.slots.LoadOrStore(playerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// TryLock takes the player's slot without blocking.
// Returns true if the slot was free.
func (pl *PlayerLock) TryLock(playerID int64) bool {
	return pl.slot(playerID).TryLock()
}

// Unlock frees the player's slot. Unlocking a free slot is a no-op.
func (pl *PlayerLock) Unlock(playerID int64) {
	if v, ok := pl.slots.Load(playerID); ok {
		m := v.(*sync.Mutex)
		if !m.TryLock() {
			m.Unlock()
			return
		}
		m.Unlock()
	}
}

// IsLocked reports whether the player currently holds the slot.
// The answer may change immediately after it is returned.
func (pl *PlayerLock) IsLocked(playerID int64) bool {
	if v, ok := pl.slots.Load(playerID); ok {
		m := v.(*sync.Mutex)
		if m.TryLock() {
			m.Unlock()
			return false
		}
		return true
	}
	return false
}

// Do runs fn while holding the player's slot, or returns ErrBusy without
// running it when the slot is taken.
func (pl *PlayerLock) Do(playerID int64, fn func() error) error {
	if !pl.TryLock(playerID) {
		return ErrBusy
	}
	defer pl.Unlock(playerID)
	return fn()
}
