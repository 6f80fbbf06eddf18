// Package id generates identifiers: prefixed NanoIDs for transient handles
// (drag sessions, SSE clients) and a monotonic integer sequence for books.
package id

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "drag-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Sequence hands out book ids. Ids are millisecond timestamps bumped
// past the last issued value, so they stay unique and increasing even
// when two books are added within the same millisecond or the clock
// steps backwards.
type Sequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewSequence creates a sequence that reads time from now.
// A nil now uses time.Now.
func NewSequence(now func() time.Time) *Sequence {
	if now == nil {
		now = time.Now
	}
	return &Sequence{now: now}
}

// Next returns a new id greater than every id issued or observed so far.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.now().UnixMilli()
	if next <= s.last {
		next = s.last + 1
	}
	s.last = next
	return next
}

// Observe raises the high-water mark to at least v.
func (s *Sequence) Observe(v int64) {
	s.mu.Lock()
	if v > s.last {
		s.last = v
	}
	s.mu.Unlock()
}
