// Package store defines the persistence contracts of the library and the
// default Badger-backed implementation.
package store

import (
	"context"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// RecordStore persists the ordered book collection as one value.
// Saves replace the whole collection; there are no partial writes.
type RecordStore interface {
	LoadBooks(ctx context.Context) ([]domain.Book, error)
	SaveBooks(ctx context.Context, books []domain.Book) error
}

// GoalStore persists the three goal targets independently.
type GoalStore interface {
	LoadGoals(ctx context.Context) (domain.Goals, error)
	SaveGoals(ctx context.Context, goals domain.Goals) error
}

// BlobStore holds encoded cover images keyed by book id.
type BlobStore interface {
	PutCover(ctx context.Context, bookID int64, data []byte) error
	// GetCover returns ErrCoverNotFound when no cover is stored.
	GetCover(ctx context.Context, bookID int64) ([]byte, error)
	// DeleteCover succeeds when no cover is stored.
	DeleteCover(ctx context.Context, bookID int64) error
	HasCover(ctx context.Context, bookID int64) (bool, error)
}

// CoverLister enumerates stored covers.
type CoverLister interface {
	CoverIDs(ctx context.Context) ([]int64, error)
}

// SequenceStore persists the book id high-water mark.
type SequenceStore interface {
	LoadLastID(ctx context.Context) (int64, error)
	SaveLastID(ctx context.Context, id int64) error
}

// Library is everything the service needs from one backend.
type Library interface {
	RecordStore
	GoalStore
	BlobStore
	SequenceStore
	Close() error
}

// Counts summarizes a backend for inspection tools.
type Counts struct {
	Books     int   `json:"books"`
	Covers    int   `json:"covers"`
	CoverSize int64 `json:"cover_bytes"`
	LastID    int64 `json:"last_id"`
}

// OrphanCovers returns the cover ids no book references, in the order
// given. A cover whose book lost hasImage still counts as referenced.
func OrphanCovers(books []domain.Book, coverIDs []int64) []int64 {
	known := make(map[int64]struct{}, len(books))
	for i := range books {
		known[books[i].ID] = struct{}{}
	}
	var orphans []int64
	for _, id := range coverIDs {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

var (
	_ Library     = (*Store)(nil)
	_ CoverLister = (*Store)(nil)
)
