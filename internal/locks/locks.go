package locks

import (
	"sync"

	"github.com/rsheldon/quorum/internal/model"
)

// SessionLocks serializes state mutations per session code. The stores offer
// no multi-statement transactions across the status document and the players
// collection, so every read-then-write sequence for one session, and every
// roster read that must not observe one mid-flight, runs inside its critical
// section. The registry, join service and broadcaster share one instance.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[model.SessionCode]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty lock manager
func New() *SessionLocks {
	return &SessionLocks{
		locks: make(map[model.SessionCode]*lockEntry),
	}
}

// Lock acquires the critical section for code and returns its release func.
// Entries are reference-counted so the map does not grow with dead sessions.
func (l *SessionLocks) Lock(code model.SessionCode) func() {
	l.mu.Lock()
	entry, ok := l.locks[code]
	if !ok {
		entry = &lockEntry{}
		l.locks[code] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, code)
		}
		l.mu.Unlock()
	}
}
