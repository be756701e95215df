package application

import "sync"

// EventLocks serializes roster and tree mutations per event. The assignment
// engine and the communication tree share one instance so their
// read-validate-write sequences never interleave for the same event.
type EventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEventLocks returns an empty lock registry.
func NewEventLocks() *EventLocks {
	return &EventLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for eventID and returns the release function.
func (l *EventLocks) lock(eventID string) func() {
	l.mu.Lock()
	mu, ok := l.locks[eventID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[eventID] = mu
	}
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// forget drops the lock entry for a deleted event.
func (l *EventLocks) forget(eventID string) {
	l.mu.Lock()
	delete(l.locks, eventID)
	l.mu.Unlock()
}
