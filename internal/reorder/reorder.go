// Package reorder runs drag-to-reorder sessions. A session only moves ids
// around in memory; nothing is persisted until Drop commits it through the
// library.
package reorder

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
	"github.com/shelfkeep/shelfkeep/internal/id"
)

// DefaultIdleTimeout is how long an untouched session survives.
const DefaultIdleTimeout = 2 * time.Minute

// Library is the part of the library service a drag needs.
type Library interface {
	Books() []domain.Book
	Reorder(ctx context.Context, ids []int64) []int64
}

// Session is one drag in progress.
type Session struct {
	ID     string `json:"id"`
	Moving int64  `json:"moving"`

	mu       sync.Mutex
	order    []int64
	lastSeen time.Time
}

// Order returns the provisional visible order.
func (s *Session) Order() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Over repositions the moving book relative to target from the pointer
// position: offset within a target of the given width. The first half
// places it before the target, the second half after.
func (s *Session) Over(target int64, offset, width float64) []int64 {
	return s.Move(target, offset >= width/2)
}

// Move places the moving book directly before or after target. Unknown
// targets and the moving book itself leave the order unchanged.
func (s *Session) Move(target int64, after bool) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target == s.Moving || !slices.Contains(s.order, target) {
		return slices.Clone(s.order)
	}

	from := slices.Index(s.order, s.Moving)
	s.order = slices.Delete(s.order, from, from+1)
	to := slices.Index(s.order, target)
	if after {
		to++
	}
	s.order = slices.Insert(s.order, to, s.Moving)
	return slices.Clone(s.order)
}

func (s *Session) contains(bookID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.order, bookID)
}

// Controller tracks drag sessions.
type Controller struct {
	lib    Library
	logger *slog.Logger
	idle   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewController creates a Controller committing to lib.
func NewController(lib Library, idle time.Duration, logger *slog.Logger) *Controller {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		lib:      lib,
		logger:   logger,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Begin starts dragging moving within the visible rows. Ids the library
// does not know are dropped from visible.
func (c *Controller) Begin(visible []int64, moving int64) (*Session, error) {
	known := make(map[int64]bool)
	for _, b := range c.lib.Books() {
		known[b.ID] = true
	}

	order := make([]int64, 0, len(visible))
	for _, v := range visible {
		if known[v] && !slices.Contains(order, v) {
			order = append(order, v)
		}
	}
	if !slices.Contains(order, moving) {
		return nil, domainerrors.Validationf("book %d is not among the visible books", moving)
	}

	sid, err := id.Generate("drag")
	if err != nil {
		return nil, domainerrors.Internal("could not start drag").WithCause(err)
	}

	s := &Session{ID: sid, Moving: moving, order: order, lastSeen: c.now()}

	c.mu.Lock()
	c.expireLocked()
	c.sessions[sid] = s
	c.mu.Unlock()

	c.logger.Debug("drag started", "session_id", sid, "book_id", moving, "visible", len(order))
	return s, nil
}

// Session returns a live session and marks it as used.
func (c *Controller) Session(sessionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, domainerrors.NotFoundf("drag %s not found", sessionID)
	}
	s.mu.Lock()
	s.lastSeen = c.now()
	s.mu.Unlock()
	return s, nil
}

// Drop ends the session. When target belongs to the session the visible
// order is spliced into the full collection order and committed. Books
// hidden from the view keep their positions. An invalid target commits
// nothing and returns false.
func (c *Controller) Drop(ctx context.Context, sessionID string, target int64) ([]int64, bool, error) {
	s, err := c.take(sessionID)
	if err != nil {
		return nil, false, err
	}
	if !s.contains(target) {
		c.logger.Debug("drag dropped outside the list", "session_id", sessionID, "target", target)
		return nil, false, nil
	}

	full := splice(domain.IDs(c.lib.Books()), s.Order())
	order := c.lib.Reorder(ctx, full)

	c.logger.Info("drag committed", "session_id", sessionID, "book_id", s.Moving)
	return order, true, nil
}

// Cancel ends the session without committing.
func (c *Controller) Cancel(sessionID string) error {
	_, err := c.take(sessionID)
	return err
}

// Len returns the number of live sessions.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked()
	return len(c.sessions)
}

func (c *Controller) take(sessionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, domainerrors.NotFoundf("drag %s not found", sessionID)
	}
	delete(c.sessions, sessionID)
	return s, nil
}

func (c *Controller) expireLocked() {
	cutoff := c.now().Add(-c.idle)
	for sid, s := range c.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(c.sessions, sid)
			c.logger.Debug("drag expired", "session_id", sid)
		}
	}
}

// splice writes visible into the slots of full that visible's books
// occupy. Visible ids no longer in full are skipped.
func splice(full, visible []int64) []int64 {
	present := make(map[int64]bool, len(full))
	for _, v := range full {
		present[v] = true
	}
	inView := make(map[int64]bool, len(visible))
	next := make([]int64, 0, len(visible))
	for _, v := range visible {
		if present[v] {
			inView[v] = true
			next = append(next, v)
		}
	}

	out := slices.Clone(full)
	k := 0
	for i, v := range out {
		if inView[v] {
			out[i] = next[k]
			k++
		}
	}
	return out
}
