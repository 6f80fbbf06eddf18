// Package domain contains the core entities of the Shelfkeep personal library.
package domain

import (
	"strings"
	"time"
)

// Book is one record in the user's collection.
// Cover bytes never live here; HasImage mirrors the blob store.
type Book struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Year       int       `json:"year"`
	Genre      string    `json:"genre"`
	Pages      int       `json:"pages"`
	Rating     float64   `json:"rating"`
	Notes      string    `json:"notes"`
	IsRead     bool      `json:"isRead"`
	IsFavorite bool      `json:"isFavorite"`
	HasImage   bool      `json:"hasImage"`
	AddedDate  time.Time `json:"addedDate"`
}

// Rated reports whether the user gave the book a rating.
func (b *Book) Rated() bool {
	return b.Rating > 0
}

// Decade returns the decade the book was published in (1987 -> 1980).
func (b *Book) Decade() int {
	return FloorDecade(b.Year)
}

// FloorDecade rounds a year down to its decade, also for negative years.
func FloorDecade(year int) int {
	d := year / 10
	if year%10 != 0 && year < 0 {
		d--
	}
	return d * 10
}

// NewBook holds the fields a user supplies when adding a book.
// Year is a pointer so a missing year can be told apart from year 0.
type NewBook struct {
	Title      string  `json:"title" validate:"required,max=500"`
	Author     string  `json:"author" validate:"required,max=500"`
	Year       *int    `json:"year" validate:"required"`
	Genre      string  `json:"genre" validate:"max=100"`
	Pages      int     `json:"pages" validate:"gte=0"`
	Rating     float64 `json:"rating" validate:"gte=0,lte=5"`
	Notes      string  `json:"notes" validate:"max=10000"`
	IsRead     bool    `json:"isRead"`
	IsFavorite bool    `json:"isFavorite"`
}

// Normalize trims the free-text fields in place.
func (n *NewBook) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Author = strings.TrimSpace(n.Author)
	n.Genre = strings.TrimSpace(n.Genre)
	n.Notes = strings.TrimSpace(n.Notes)
}

// Build creates the record for a validated input.
func (n *NewBook) Build(id int64, addedAt time.Time) Book {
	year := 0
	if n.Year != nil {
		year = *n.Year
	}
	return Book{
		ID:         id,
		Title:      n.Title,
		Author:     n.Author,
		Year:       year,
		Genre:      n.Genre,
		Pages:      n.Pages,
		Rating:     n.Rating,
		Notes:      n.Notes,
		IsRead:     n.IsRead,
		IsFavorite: n.IsFavorite,
		AddedDate:  addedAt,
	}
}

// IndexOf returns the position of the book with id, or -1.
func IndexOf(books []Book, id int64) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the ids of books in collection order.
func IDs(books []Book) []int64 {
	ids := make([]int64, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	return ids
}

// MaxID returns the largest id in books, or 0 when empty.
func MaxID(books []Book) int64 {
	var maxID int64
	for i := range books {
		if books[i].ID > maxID {
			maxID = books[i].ID
		}
	}
	return maxID
}
