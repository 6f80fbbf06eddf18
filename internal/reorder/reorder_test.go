package reorder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
)

type fakeLibrary struct {
	books   []domain.Book
	commits [][]int64
}

func newFakeLibrary(ids ...int64) *fakeLibrary {
	f := &fakeLibrary{}
	for _, v := range ids {
		f.books = append(f.books, domain.Book{ID: v})
	}
	return f
}

func (f *fakeLibrary) Books() []domain.Book { return f.books }

func (f *fakeLibrary) Reorder(_ context.Context, ids []int64) []int64 {
	f.commits = append(f.commits, ids)
	next := make([]domain.Book, 0, len(ids))
	for _, v := range ids {
		next = append(next, domain.Book{ID: v})
	}
	f.books = next
	return ids
}

func TestSession_Over(t *testing.T) {
	lib := newFakeLibrary(1, 2, 3, 4)
	c := NewController(lib, 0, nil)

	s, err := c.Begin([]int64{1, 2, 3, 4}, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "drag-"))

	// First half of 3: before it.
	assert.Equal(t, []int64{2, 1, 3, 4}, s.Over(3, 10, 100))
	// Second half of 3: after it.
	assert.Equal(t, []int64{2, 3, 1, 4}, s.Over(3, 60, 100))
	// Hovering itself or an unknown id changes nothing.
	assert.Equal(t, []int64{2, 3, 1, 4}, s.Over(1, 0, 100))
	assert.Equal(t, []int64{2, 3, 1, 4}, s.Move(99, true))

	assert.Empty(t, lib.commits)
}

func TestController_DropCommitsOnce(t *testing.T) {
	lib := newFakeLibrary(1, 2, 3)
	c := NewController(lib, 0, nil)

	s, err := c.Begin([]int64{1, 2, 3}, 3)
	require.NoError(t, err)
	s.Move(1, false)

	order, ok, err := c.Drop(context.Background(), s.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{3, 1, 2}, order)
	require.Len(t, lib.commits, 1)
	assert.Equal(t, 0, c.Len())
}

func TestController_DropKeepsHiddenBooks(t *testing.T) {
	// Full order 1..6; the view shows only 2, 4 and 6.
	lib := newFakeLibrary(1, 2, 3, 4, 5, 6)
	c := NewController(lib, 0, nil)

	s, err := c.Begin([]int64{2, 4, 6}, 6)
	require.NoError(t, err)
	s.Move(2, false)

	order, ok, err := c.Drop(context.Background(), s.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 6, 3, 2, 5, 4}, order)
	assert.Len(t, order, 6)
}

func TestController_InvalidDropCommitsNothing(t *testing.T) {
	lib := newFakeLibrary(1, 2, 3)
	c := NewController(lib, 0, nil)

	s, err := c.Begin([]int64{1, 2}, 1)
	require.NoError(t, err)
	s.Move(2, true)

	_, ok, err := c.Drop(context.Background(), s.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, lib.commits)
	assert.Equal(t, 0, c.Len())
}

func TestController_Cancel(t *testing.T) {
	lib := newFakeLibrary(1, 2)
	c := NewController(lib, 0, nil)

	s, err := c.Begin([]int64{1, 2}, 2)
	require.NoError(t, err)
	s.Move(1, false)

	require.NoError(t, c.Cancel(s.ID))
	assert.Empty(t, lib.commits)

	err = c.Cancel(s.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestController_BeginRejectsInvisibleBook(t *testing.T) {
	c := NewController(newFakeLibrary(1, 2), 0, nil)

	_, err := c.Begin([]int64{1}, 2)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = c.Begin([]int64{1, 99}, 99)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestController_IdleSessionsExpire(t *testing.T) {
	c := NewController(newFakeLibrary(1, 2), time.Minute, nil)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	s, err := c.Begin([]int64{1, 2}, 1)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = c.Session(s.ID)
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = c.Session(s.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Equal(t, 0, c.Len())
}

func TestSplice(t *testing.T) {
	assert.Equal(t, []int64{1, 6, 3, 2, 5, 4}, splice([]int64{1, 2, 3, 4, 5, 6}, []int64{6, 2, 4}))
	// A visible book deleted during the drag is skipped.
	assert.Equal(t, []int64{3, 2}, splice([]int64{2, 3}, []int64{3, 9, 2}))
}
