// Package service holds the library's business logic: the collection,
// its goals, and every mutation that touches storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
	"github.com/shelfkeep/shelfkeep/internal/id"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/sse"
	"github.com/shelfkeep/shelfkeep/internal/store"
	"github.com/shelfkeep/shelfkeep/internal/validation"
)

// EventEmitter receives change events for connected renderers.
type EventEmitter interface {
	Emit(event sse.Event)
}

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string, isError bool)
}

// CoverCompressor turns an uploaded image into a storable cover.
type CoverCompressor interface {
	Compress(ctx context.Context, data []byte) (*images.Compressed, error)
}

// Deps are the collaborators of a LibraryService. Records, Goals, Covers
// and Validator are required.
type Deps struct {
	Records    store.RecordStore
	Goals      store.GoalStore
	Covers     store.BlobStore
	Sequence   store.SequenceStore
	Compressor CoverCompressor
	Validator  *validation.Validator
	Events     EventEmitter
	Notifier   Notifier
	Logger     *slog.Logger
	Now        func() time.Time

	// MaxUploadBytes caps cover uploads; 0 uses images.DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// LibraryService owns the in-memory collection. Every mutation runs under
// one mutex and is the only writer of both the record and blob stores, so
// a book's hasImage flag and its cover change together.
type LibraryService struct {
	records    store.RecordStore
	goalStore  store.GoalStore
	covers     store.BlobStore
	sequence   store.SequenceStore
	compressor CoverCompressor
	validator  *validation.Validator
	events     EventEmitter
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
	maxUpload  int64

	ids *id.Sequence

	mu    sync.RWMutex
	books []domain.Book
	goals domain.Goals
}

// NewLibraryService creates a service. Call Load before serving requests.
func NewLibraryService(d Deps) *LibraryService {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = images.DefaultMaxUploadBytes
	}
	if d.Events == nil {
		d.Events = noopEmitter{}
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Compressor == nil {
		d.Compressor = images.NewCompressor(images.CompressOptions{})
	}
	return &LibraryService{
		records:    d.Records,
		goalStore:  d.Goals,
		covers:     d.Covers,
		sequence:   d.Sequence,
		compressor: d.Compressor,
		validator:  d.Validator,
		events:     d.Events,
		notifier:   d.Notifier,
		logger:     d.Logger,
		now:        d.Now,
		maxUpload:  d.MaxUploadBytes,
		ids:        id.NewSequence(d.Now),
		books:      []domain.Book{},
		goals:      domain.DefaultGoals(),
	}
}

// Load reads the collection, goals and id high-water mark from storage and
// repairs hasImage flags that point at missing covers.
func (s *LibraryService) Load(ctx context.Context) error {
	books, err := s.records.LoadBooks(ctx)
	if err != nil {
		return domainerrors.Storage(err, "load library")
	}

	goals, err := s.goalStore.LoadGoals(ctx)
	if err != nil {
		s.logger.Warn("using default goals", "error", err)
		goals = domain.DefaultGoals()
	}

	var lastID int64
	if s.sequence != nil {
		if lastID, err = s.sequence.LoadLastID(ctx); err != nil {
			s.logger.Warn("id high-water mark unavailable", "error", err)
		}
	}

	repaired := s.reconcileCovers(ctx, books)

	s.mu.Lock()
	s.books = books
	s.goals = goals
	s.ids.Observe(max(lastID, domain.MaxID(books)))
	if repaired > 0 {
		s.persistBooksLocked(ctx)
	}
	total := len(s.books)
	s.mu.Unlock()

	s.logger.Info("library loaded", "books", total, "covers_repaired", repaired)

	s.notifier.Notify(s.Welcome(), false)
	return nil
}

// Welcome returns the greeting shown when the library opens.
func (s *LibraryService) Welcome() string {
	s.mu.RLock()
	total := len(s.books)
	s.mu.RUnlock()

	if total == 0 {
		return "Welcome! Start your first collection"
	}
	return fmt.Sprintf("Welcome back! You have %d books", total)
}

// reconcileCovers clears hasImage on books whose cover is missing and
// returns how many were changed. Lookup errors leave the flag alone.
func (s *LibraryService) reconcileCovers(ctx context.Context, books []domain.Book) int {
	repaired := 0
	for i := range books {
		if !books[i].HasImage {
			continue
		}
		ok, err := s.covers.HasCover(ctx, books[i].ID)
		if err != nil {
			s.logger.Warn("cover check failed", "book_id", books[i].ID, "error", err)
			continue
		}
		if !ok {
			books[i].HasImage = false
			repaired++
		}
	}
	return repaired
}

// ReconcileCover re-checks one book's cover after the blob store changed
// outside the service. A flag whose cover is gone is cleared and saved.
// It reports whether the book changed.
func (s *LibraryService) ReconcileCover(ctx context.Context, bookID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.IndexOf(s.books, bookID)
	if i < 0 || !s.books[i].HasImage {
		return false
	}
	ok, err := s.covers.HasCover(ctx, bookID)
	if err != nil {
		s.logger.Warn("cover check failed", "book_id", bookID, "error", err)
		return false
	}
	if ok {
		return false
	}

	s.books[i].HasImage = false
	s.persistBooksLocked(ctx)
	s.logger.Info("cover removed externally", "book_id", bookID)
	s.events.Emit(sse.NewBookUpdatedEvent(s.books[i]))
	return true
}

// Books returns a copy of the collection in its stored order.
func (s *LibraryService) Books() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books)
}

// Book returns one book by id.
func (s *LibraryService) Book(bookID int64) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := domain.IndexOf(s.books, bookID); i >= 0 {
		return s.books[i], true
	}
	return domain.Book{}, false
}

// Goals returns the current goals.
func (s *LibraryService) Goals() domain.Goals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals
}

// Stats computes statistics for the current collection.
func (s *LibraryService) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.books, s.goals, s.now())
}

// Cover returns the stored cover for a book that has one.
func (s *LibraryService) Cover(ctx context.Context, bookID int64) ([]byte, error) {
	book, ok := s.Book(bookID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %d not found", bookID)
	}
	if !book.HasImage {
		return nil, domainerrors.NotFoundf("book %d has no cover", bookID)
	}
	data, err := s.covers.GetCover(ctx, bookID)
	if errors.Is(err, store.ErrCoverNotFound) {
		return nil, domainerrors.NotFoundf("book %d has no cover", bookID).WithCause(err)
	}
	if err != nil {
		return nil, domainerrors.Storage(err, "read cover")
	}
	return data, nil
}

// GetCover satisfies view.CoverReader for books known to have a cover.
func (s *LibraryService) GetCover(ctx context.Context, bookID int64) ([]byte, error) {
	return s.covers.GetCover(ctx, bookID)
}

// PreviewCover validates and compresses an upload without storing it.
func (s *LibraryService) PreviewCover(ctx context.Context, data []byte) (*images.Compressed, error) {
	if _, err := images.CheckUpload(data, s.maxUpload); err != nil {
		return nil, err
	}
	out, err := s.compressor.Compress(ctx, data)
	if err != nil {
		return nil, domainerrors.Validation("cover image could not be processed").WithCause(err)
	}
	return out, nil
}

// persistBooksLocked saves the collection. Failures are logged and shown to
// the user; memory stays authoritative and the next save retries.
// Callers hold s.mu.
func (s *LibraryService) persistBooksLocked(ctx context.Context) bool {
	if err := s.records.SaveBooks(ctx, s.books); err != nil {
		s.logger.Error("failed to save library", "books", len(s.books), "error", err)
		s.notifier.Notify("Your library could not be saved. Changes will be retried.", true)
		return false
	}
	return true
}

// emitStatsLocked publishes recomputed statistics. Callers hold s.mu.
func (s *LibraryService) emitStatsLocked() {
	s.events.Emit(sse.NewStatsUpdatedEvent(ComputeStats(s.books, s.goals, s.now())))
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

type noopNotifier struct{}

func (noopNotifier) Notify(string, bool) {}
