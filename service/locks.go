package service

import (
	"sync"

	"github.com/google/uuid"
)

// sampleLocks serializes trade writes per sample inside this process. The
// row lock taken in the transaction covers other processes on PostgreSQL.
type sampleLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]*sampleLock
}

type sampleLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sampleLocks) lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[uuid.UUID]*sampleLock)
	}
	e, ok := l.held[id]
	if !ok {
		e = &sampleLock{}
		l.held[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
