package service

import (
	"math"
	"time"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// trailingWindow is the span counted by Stats.AddedLast30Days.
const trailingWindow = 30 * 24 * time.Hour

// ComputeStats derives the library statistics from the collection.
// It is pure: the same books, goals and instant always give the same result.
func ComputeStats(books []domain.Book, goals domain.Goals, now time.Time) domain.Stats {
	var (
		st        domain.Stats
		ratingSum float64
		rated     int
		genres    = make(map[string]struct{})
		decades   = make(map[int]struct{})
		cutoff    = now.Add(-trailingWindow)
	)

	st.Total = len(books)
	for i := range books {
		b := &books[i]

		if b.IsRead {
			st.Read++
			decades[b.Decade()] = struct{}{}
		}
		if b.IsFavorite {
			st.Favorites++
		}
		st.TotalPages += max(b.Pages, 0)

		if b.Rated() {
			ratingSum += b.Rating
			rated++
		}
		if b.Genre != "" {
			genres[b.Genre] = struct{}{}
		}

		added := b.AddedDate.In(now.Location())
		if added.Year() == now.Year() && added.Month() == now.Month() {
			st.AddedThisMonth++
		}
		if !b.AddedDate.Before(cutoff) {
			st.AddedLast30Days++
		}
	}

	st.Unread = st.Total - st.Read
	if st.Total > 0 {
		st.CompletionPercent = int(math.Round(float64(st.Read) / float64(st.Total) * 100))
	}
	if rated > 0 {
		st.AverageRating = math.Round(ratingSum/float64(rated)*10) / 10
	}
	st.Genres = len(genres)
	st.ReadDecades = len(decades)

	// Yearly progress counts every read book, not only this year's.
	st.Goals = domain.GoalProgress{
		Yearly:   domain.NewProgress(st.Read, goals.Yearly),
		Variety:  domain.NewProgress(st.ReadDecades, goals.Variety),
		Lifetime: domain.NewProgress(st.Read, goals.Lifetime),
	}
	return st
}
