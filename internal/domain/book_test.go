package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFloorDecade(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{1987, 1980},
		{2000, 2000},
		{2009, 2000},
		{0, 0},
		{-5, -10},
		{-10, -10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorDecade(tt.year), "year %d", tt.year)
	}
}

func TestNewBook_NormalizeAndBuild(t *testing.T) {
	year := 1965
	in := NewBook{
		Title:  "  Dune ",
		Author: "\tFrank Herbert\n",
		Year:   &year,
		Genre:  " Sci-Fi ",
		Notes:  "  spice  ",
		Pages:  412,
		Rating: 4.5,
	}
	in.Normalize()

	added := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := in.Build(42, added)

	assert.Equal(t, int64(42), b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.Equal(t, "Sci-Fi", b.Genre)
	assert.Equal(t, "spice", b.Notes)
	assert.Equal(t, 1965, b.Year)
	assert.Equal(t, 412, b.Pages)
	assert.InDelta(t, 4.5, b.Rating, 0.0001)
	assert.False(t, b.HasImage)
	assert.Equal(t, added, b.AddedDate)
}

func TestCollectionHelpers(t *testing.T) {
	books := []Book{{ID: 3}, {ID: 9}, {ID: 5}}

	assert.Equal(t, 1, IndexOf(books, 9))
	assert.Equal(t, -1, IndexOf(books, 7))
	assert.Equal(t, []int64{3, 9, 5}, IDs(books))
	assert.Equal(t, int64(9), MaxID(books))
	assert.Equal(t, int64(0), MaxID(nil))
}

func TestGoalKind_InRange(t *testing.T) {
	assert.True(t, GoalYearly.InRange(1))
	assert.True(t, GoalYearly.InRange(365))
	assert.False(t, GoalYearly.InRange(400))
	assert.False(t, GoalVariety.InRange(0))
	assert.True(t, GoalVariety.InRange(20))
	assert.False(t, GoalVariety.InRange(21))
	assert.True(t, GoalLifetime.InRange(10000))
	assert.False(t, GoalLifetime.InRange(10001))
}

func TestNewProgress_Capped(t *testing.T) {
	assert.InDelta(t, 50.0, NewProgress(1, 2).Percent, 0.0001)
	assert.InDelta(t, 100.0, NewProgress(10, 5).Percent, 0.0001)
	assert.InDelta(t, 0.0, NewProgress(3, 0).Percent, 0.0001)
}

func TestParseViewParams(t *testing.T) {
	f, err := ParseFilter("")
	assert.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("borrowed")
	assert.Error(t, err)

	s, err := ParseSortKey("year-desc")
	assert.NoError(t, err)
	assert.Equal(t, SortYearDesc, s)

	_, err = ParseSortKey("rating")
	assert.Error(t, err)

	v, err := ParseViewMode("cover")
	assert.NoError(t, err)
	assert.Equal(t, ViewCover, v)
}
