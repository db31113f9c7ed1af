package service

import "sync"

// AttemptLocker serializes mutations per attempt id. Every service that
// writes attempt rows shares one instance, so all writers for one attempt go
// through the same mutex and stage transitions observe each other's effects.
type AttemptLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewAttemptLocker() *AttemptLocker {
	return &AttemptLocker{locks: make(map[uint]*sync.Mutex)}
}

func (l *AttemptLocker) Lock(attemptID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[attemptID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[attemptID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
