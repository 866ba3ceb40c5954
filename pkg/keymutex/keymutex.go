// Package keymutex provides per-key mutual exclusion.
// It serializes mutating operations for the same community while letting
// operations on different communities proceed concurrently.
// No external dependencies - uses only standard library.
package keymutex

import "sync"

// KeyMutex is a set of mutexes addressed by string key.
// A mutex exists only while at least one goroutine holds or waits for it,
// so the map does not grow with the number of distinct keys ever seen.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{
		entries: make(map[string]*entry),
	}
}

// Lock acquires the mutex for the given key and returns the unlock function.
//
//	unlock := locks.Lock(communityID)
//	defer unlock()
func (k *KeyMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or contended.
// Intended for tests and diagnostics.
func (k *KeyMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
