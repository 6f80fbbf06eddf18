package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/sse"
)

// Warnings attached to an otherwise successful add.
const (
	WarnCoverUnprocessable = "The cover could not be processed; the book was saved without it."
	WarnCoverNotSaved      = "The cover could not be saved; the book was saved without it."
)

// Notices shown when a flag is toggled.
const (
	NoticeFinished    = "Congratulations! Another book finished!"
	NoticeUnread      = "Book marked as unread"
	NoticeFavorited   = "Added to favorites!"
	NoticeUnfavorited = "Removed from favorites"
)

// AddResult describes a completed add.
type AddResult struct {
	Book     domain.Book        `json:"book"`
	Cover    *images.Compressed `json:"cover,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Confirmer approves destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, book domain.Book) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, book domain.Book) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, book domain.Book) bool { return f(ctx, book) }

// Confirmed approves every request. Use it when the user already confirmed.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, domain.Book) bool { return true })

// AddBook validates the input, stores an optional cover and inserts the new
// book at the front of the collection. Invalid input changes nothing. A cover
// that cannot be compressed or stored is dropped with a warning; the book is
// still added.
func (s *LibraryService) AddBook(ctx context.Context, in domain.NewBook, cover []byte) (*AddResult, error) {
	in.Normalize()
	if err := s.validator.Validate(in); err != nil {
		s.logger.Debug("rejected book", "error", err)
		return nil, err
	}
	if len(cover) > 0 {
		if _, err := images.CheckUpload(cover, s.maxUpload); err != nil {
			s.logger.Debug("rejected cover", "bytes", len(cover), "error", err)
			return nil, err
		}
	}

	result := &AddResult{}

	var compressed *images.Compressed
	if len(cover) > 0 {
		var err error
		compressed, err = s.compressor.Compress(ctx, cover)
		if err != nil {
			s.logger.Warn("cover compression failed", "bytes", len(cover), "error", err)
			result.Warnings = append(result.Warnings, WarnCoverUnprocessable)
			compressed = nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book := in.Build(s.ids.Next(), s.now())

	if compressed != nil {
		if err := s.covers.PutCover(ctx, book.ID, compressed.Data); err != nil {
			s.logger.Warn("cover write failed", "book_id", book.ID, "error", err)
			result.Warnings = append(result.Warnings, WarnCoverNotSaved)
		} else {
			book.HasImage = true
			result.Cover = compressed
		}
	}

	s.books = slices.Insert(s.books, 0, book)
	s.persistBooksLocked(ctx)
	s.persistLastIDLocked(ctx, book.ID)

	s.logger.Info("book added", "book_id", book.ID, "title", book.Title, "has_image", book.HasImage)

	s.events.Emit(sse.NewBookCreatedEvent(book))
	s.emitStatsLocked()
	s.events.Emit(sse.NewCelebrateEvent(book.ID))
	s.notifier.Notify(fmt.Sprintf("%q added to your library", book.Title), false)
	for _, w := range result.Warnings {
		s.notifier.Notify(w, true)
	}

	result.Book = book
	return result, nil
}

func (s *LibraryService) persistLastIDLocked(ctx context.Context, last int64) {
	if s.sequence == nil {
		return
	}
	if err := s.sequence.SaveLastID(ctx, last); err != nil {
		s.logger.Warn("failed to save id high-water mark", "error", err)
	}
}

// ToggleRead flips the read flag. It returns false when no book has the id.
func (s *LibraryService) ToggleRead(ctx context.Context, bookID int64) (*domain.Book, bool) {
	return s.toggle(ctx, bookID, func(b *domain.Book) string {
		b.IsRead = !b.IsRead
		if b.IsRead {
			return NoticeFinished
		}
		return NoticeUnread
	})
}

// ToggleFavorite flips the favorite flag. It returns false when no book has the id.
func (s *LibraryService) ToggleFavorite(ctx context.Context, bookID int64) (*domain.Book, bool) {
	return s.toggle(ctx, bookID, func(b *domain.Book) string {
		b.IsFavorite = !b.IsFavorite
		if b.IsFavorite {
			return NoticeFavorited
		}
		return NoticeUnfavorited
	})
}

// toggle applies flip and shows the notice it returns.
func (s *LibraryService) toggle(ctx context.Context, bookID int64, flip func(*domain.Book) string) (*domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.IndexOf(s.books, bookID)
	if i < 0 {
		return nil, false
	}
	notice := flip(&s.books[i])
	book := s.books[i]

	s.persistBooksLocked(ctx)
	s.events.Emit(sse.NewBookUpdatedEvent(book))
	s.emitStatsLocked()
	s.notifier.Notify(notice, false)
	return &book, true
}

// DeleteBook removes a book once confirm approves it. An unknown id is a
// no-op. A refused confirmation returns a confirmation-required error and
// changes nothing. Failing to delete the cover does not keep the book.
func (s *LibraryService) DeleteBook(ctx context.Context, bookID int64, confirm Confirmer) (bool, error) {
	book, ok := s.Book(bookID)
	if !ok {
		return false, nil
	}
	if confirm == nil || !confirm.Confirm(ctx, book) {
		return false, domainerrors.ConfirmationRequired(
			fmt.Sprintf("deleting %q requires confirmation", book.Title))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.IndexOf(s.books, bookID)
	if i < 0 {
		return false, nil
	}
	book = s.books[i]

	if book.HasImage {
		if err := s.covers.DeleteCover(ctx, bookID); err != nil {
			s.logger.Warn("cover delete failed, leaving orphan", "book_id", bookID, "error", err)
			s.notifier.Notify("The cover could not be removed from storage.", true)
		}
	}

	s.books = slices.Delete(s.books, i, i+1)
	s.persistBooksLocked(ctx)

	s.logger.Info("book deleted", "book_id", bookID)
	s.events.Emit(sse.NewBookDeletedEvent(bookID, s.now()))
	s.emitStatsLocked()
	s.notifier.Notify(fmt.Sprintf("%q removed", book.Title), false)
	return true, nil
}

// Reorder rearranges the collection to follow ids. Unknown ids are ignored,
// repeated ids count once, and books missing from ids are dropped.
// It returns the resulting order.
func (s *LibraryService) Reorder(ctx context.Context, ids []int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[int64]int, len(s.books))
	for i := range s.books {
		index[s.books[i].ID] = i
	}

	next := make([]domain.Book, 0, len(ids))
	for _, bookID := range ids {
		i, ok := index[bookID]
		if !ok {
			continue
		}
		next = append(next, s.books[i])
		delete(index, bookID)
	}

	if dropped := len(s.books) - len(next); dropped > 0 {
		s.logger.Warn("reorder dropped unlisted books", "dropped", dropped)
	}

	s.books = next
	s.persistBooksLocked(ctx)

	order := domain.IDs(s.books)
	s.events.Emit(sse.NewReorderedEvent(order))
	s.emitStatsLocked()
	return order
}

// SetGoals replaces all three goals. If any value is out of range none of
// them change.
func (s *LibraryService) SetGoals(ctx context.Context, goals domain.Goals) error {
	if err := s.validator.Validate(goals); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.goals = goals
	if err := s.goalStore.SaveGoals(ctx, goals); err != nil {
		s.logger.Error("failed to save goals", "error", err)
		s.notifier.Notify("Your goals could not be saved.", true)
	}

	s.events.Emit(sse.NewGoalsUpdatedEvent(goals))
	s.emitStatsLocked()
	s.notifier.Notify("Goals updated", false)
	return nil
}
