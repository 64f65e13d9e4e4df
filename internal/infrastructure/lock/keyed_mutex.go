// Package lock provides in-process serialization of operations that touch
// the same resources, keyed by an arbitrary string (box ID, account ID).
package lock

import (
	"sort"
	"sync"
)

// KeyedMutex hands out one mutex per key. Acquire locks all requested keys
// in sorted order, so two goroutines locking overlapping key sets can never
// deadlock against each other.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Acquire blocks until every key is held and returns the release function.
// Duplicate keys are collapsed, so Acquire("a", "a") locks "a" once.
func (km *KeyedMutex) Acquire(keys ...string) (release func()) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}
	sort.Strings(unique)

	held := make([]*entry, 0, len(unique))
	for _, k := range unique {
		e := km.retain(k)
		e.mu.Lock()
		held = append(held, e)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Unlock in reverse acquisition order
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				km.put(unique[i])
			}
		})
	}
}

func (km *KeyedMutex) retain(key string) *entry {
	km.mu.Lock()
	defer km.mu.Unlock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{}
		km.entries[key] = e
	}
	e.refs++
	return e
}

func (km *KeyedMutex) put(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()
	e, ok := km.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(km.entries, key)
	}
}
