package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil, domain.DefaultGoals(), time.Now())

	assert.Equal(t, 0, st.Total)
	assert.Equal(t, 0, st.CompletionPercent)
	assert.InDelta(t, 0.0, st.AverageRating, 0)
	assert.Equal(t, 52, st.Goals.Yearly.Target)
	assert.InDelta(t, 0.0, st.Goals.Yearly.Percent, 0)
}

func TestComputeStats_CompletionRounds(t *testing.T) {
	books := []domain.Book{{ID: 1, IsRead: true}, {ID: 2}, {ID: 3}}

	st := ComputeStats(books, domain.DefaultGoals(), time.Now())
	assert.Equal(t, 33, st.CompletionPercent)
	assert.Equal(t, 1, st.Read)
	assert.Equal(t, 2, st.Unread)

	books[1].IsRead = true
	st = ComputeStats(books, domain.DefaultGoals(), time.Now())
	assert.Equal(t, 67, st.CompletionPercent)
}

func TestComputeStats_Aggregates(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	books := []domain.Book{
		{ID: 1, Year: 1987, Genre: "Fantasy", Pages: 300, Rating: 4, IsRead: true, IsFavorite: true, AddedDate: now.Add(-time.Hour)},
		{ID: 2, Year: 1981, Genre: "Fantasy", Pages: 200, Rating: 5, IsRead: true, AddedDate: now.AddDate(0, 0, -20)},
		{ID: 3, Year: 2015, Genre: "History", Pages: 0, IsRead: true, AddedDate: now.AddDate(0, 0, -40)},
		{ID: 4, Year: 1950, Genre: "", Pages: 150, AddedDate: now.AddDate(-1, 0, 0)},
	}
	goals := domain.Goals{Yearly: 2, Variety: 4, Lifetime: 100}

	st := ComputeStats(books, goals, now)

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Read)
	assert.Equal(t, 1, st.Favorites)
	assert.Equal(t, 650, st.TotalPages)
	assert.InDelta(t, 4.5, st.AverageRating, 0.0001)
	assert.Equal(t, 2, st.Genres)
	assert.Equal(t, 1, st.AddedThisMonth)
	assert.Equal(t, 2, st.AddedLast30Days)
	assert.Equal(t, 2, st.ReadDecades) // 1980s twice, 2010s

	assert.Equal(t, domain.Progress{Current: 3, Target: 2, Percent: 100}, st.Goals.Yearly)
	assert.InDelta(t, 50.0, st.Goals.Variety.Percent, 0.0001)
	assert.InDelta(t, 3.0, st.Goals.Lifetime.Percent, 0.0001)
}

func TestComputeStats_AverageRatingOneDecimal(t *testing.T) {
	books := []domain.Book{{Rating: 4}, {Rating: 4}, {Rating: 5}, {Rating: 0}}

	st := ComputeStats(books, domain.DefaultGoals(), time.Now())
	assert.InDelta(t, 4.3, st.AverageRating, 0.0001)
}
