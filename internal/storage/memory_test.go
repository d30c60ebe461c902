package storage

import (
	"sync"
	"testing"
)

func TestHashSetSeenRecord(t *testing.T) {
	s := NewHashSet()
	if s.Seen("abc") {
		t.Fatalf("fresh set should not contain abc")
	}
	s.Record("abc")
	s.Record("abc")
	if !s.Seen("abc") {
		t.Fatalf("expected abc after Record")
	}
	if got := s.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestHashSetObserve(t *testing.T) {
	s := NewHashSet()
	if s.Observe("h") {
		t.Fatalf("first Observe must report novel content")
	}
	if !s.Observe("h") {
		t.Fatalf("second Observe must report a duplicate")
	}
}

func TestHashSetObserveConcurrent(t *testing.T) {
	s := NewHashSet()
	const callers = 32
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		novels int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !s.Observe("same") {
				mu.Lock()
				novels++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if novels != 1 {
		t.Fatalf("exactly one caller should see novel content, got %d", novels)
	}
}
