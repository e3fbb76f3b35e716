// Package keymutex provides a partitioned lock table keyed by UUID.
// Locking a key serializes only the callers targeting that key; callers
// on distinct keys proceed in parallel.
package keymutex

import (
	"sync"

	"github.com/google/uuid"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

func New() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Lock blocks until the exclusive section for key is acquired and returns
// the matching unlock function. Entries are reference counted so the table
// does not grow with the number of keys ever seen.
func (k *KeyedMutex) Lock(key uuid.UUID) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
