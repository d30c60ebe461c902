// Package storage holds the process-wide duplicate tracker. Go keeps each
// package in its own folder; files in the folder share a namespace.
package storage

import (
	"sync"
)

// HashSet remembers every content hash it has been shown. It never evicts and
// never persists; it lives as long as the value does, which makes per-test
// isolation a matter of constructing a fresh one.
type HashSet struct {
	// RWMutex lets concurrent Seen calls proceed in parallel while Record and
	// Observe take the write lock.
	mu     sync.RWMutex
	hashes map[string]struct{}
}

// NewHashSet constructs an empty HashSet.
func NewHashSet() *HashSet {
	return &HashSet{
		hashes: make(map[string]struct{}),
	}
}

// Seen reports whether hash was recorded before.
func (s *HashSet) Seen(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[hash]
	return ok
}

// Record inserts hash. Recording an existing hash is a no-op.
func (s *HashSet) Record(hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[hash] = struct{}{}
}

// Observe runs Seen and, for novel hashes, Record inside one critical section
// so two concurrent uploads of the same new content cannot both be reported
// as originals.
func (s *HashSet) Observe(hash string) (seen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; ok {
		return true
	}
	s.hashes[hash] = struct{}{}
	return false
}

// Len returns the number of distinct hashes recorded.
func (s *HashSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes)
}
