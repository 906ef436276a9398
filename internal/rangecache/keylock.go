package rangecache

import (
	"sync"

	"github.com/rickgao/pricecache/internal/model"
)

// keyLock hands out one mutex per series key and forgets it once unused.
type keyLock struct {
	mu    sync.Mutex
	locks map[model.SeriesKey]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[model.SeriesKey]*keyEntry)}
}

// Lock blocks until key is free and returns its unlock function.
func (l *keyLock) Lock(key model.SeriesKey) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyEntry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of keys currently held or awaited.
func (l *keyLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
