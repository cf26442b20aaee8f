package syncer

import "sync/atomic"

// SyncLock provides non-blocking lock semantics using atomic operations.
// The engine assumes a single sync run per store at a time; overlapping runs
// are rejected rather than queued.
type SyncLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *SyncLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *SyncLock) Release() {
	l.state.Store(0)
}
