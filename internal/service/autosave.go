package service

import (
	"context"
	"time"
)

// DefaultAutosaveInterval is how often RunAutosave re-persists the library.
const DefaultAutosaveInterval = 5 * time.Minute

// Autosave re-persists the collection and reports whether a save ran.
// An empty collection is never written.
func (s *LibraryService) Autosave(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.books) == 0 {
		return false
	}
	if !s.persistBooksLocked(ctx) {
		return false
	}
	s.logger.Debug("autosaved library", "books", len(s.books))
	return true
}

// RunAutosave calls Autosave every interval until ctx is cancelled.
func (s *LibraryService) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Autosave(ctx)
		}
	}
}
