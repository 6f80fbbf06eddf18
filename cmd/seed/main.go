// Package main seeds a library with sample books for local development.
//
// Usage:
//
//	go run ./cmd/seed -data-path ~/Shelfkeep/data
//	go run ./cmd/seed -data-path /tmp/shelf -backend sqlite -count 40
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/di/providers"
	"github.com/shelfkeep/shelfkeep/internal/domain"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/validation"
)

var samples = []domain.NewBook{
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Pages: 412},
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", Pages: 304},
	{Title: "Piranesi", Author: "Susanna Clarke", Genre: "Fantasy", Pages: 272},
	{Title: "Middlemarch", Author: "George Eliot", Genre: "Classic", Pages: 880},
	{Title: "Beloved", Author: "Toni Morrison", Genre: "Literary Fiction", Pages: 324},
	{Title: "The Name of the Rose", Author: "Umberto Eco", Genre: "Mystery", Pages: 536},
	{Title: "Kindred", Author: "Octavia E. Butler", Genre: "Science Fiction", Pages: 264},
	{Title: "Stoner", Author: "John Williams", Genre: "Literary Fiction", Pages: 288},
	{Title: "Gödel, Escher, Bach", Author: "Douglas Hofstadter", Genre: "Nonfiction", Pages: 777},
	{Title: "The Remains of the Day", Author: "Kazuo Ishiguro", Genre: "Literary Fiction", Pages: 258},
	{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Genre: "Fantasy", Pages: 183},
	{Title: "Never Let Me Go", Author: "Kazuo Ishiguro", Genre: "Literary Fiction", Pages: 288},
}

var years = []int{1965, 1969, 2020, 1871, 1987, 1980, 1979, 1965, 1979, 1989, 1968, 2005}

func main() {
	home, _ := os.UserHomeDir()
	dataPath := flag.String("data-path", filepath.Join(home, "Shelfkeep", "data"), "Directory for library data")
	backend := flag.String("backend", config.StorageBadger, "Record storage backend (badger, sqlite)")
	count := flag.Int("count", len(samples), "Number of books to add")
	flag.Parse()

	log := logger.New(logger.Config{Level: logger.ParseLevel("info")})

	db, path, err := providers.OpenLibrary(config.StorageConfig{DataPath: *dataPath, Backend: *backend}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open library: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	lib := service.NewLibraryService(service.Deps{
		Records:   db,
		Goals:     db,
		Covers:    db,
		Sequence:  db,
		Validator: validation.New(),
		Logger:    log.Logger,
	})

	ctx := context.Background()
	if err := lib.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load library: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeding %d books into %s\n", *count, path)

	added := 0
	for n := range *count {
		in := samples[n%len(samples)]
		year := years[n%len(years)]
		in.Year = &year
		in.IsRead = rand.IntN(2) == 0
		in.IsFavorite = rand.IntN(4) == 0
		if in.IsRead {
			in.Rating = float64(rand.IntN(5) + 1)
		}

		res, err := lib.AddBook(ctx, in, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  skipped %q: %v\n", in.Title, err)
			continue
		}
		added++
		fmt.Printf("  #%d %s (%s)\n", res.Book.ID, res.Book.Title, res.Book.Author)

		// Ids derive from the clock; keep them spread like real entries.
		time.Sleep(2 * time.Millisecond)
	}

	stats := lib.Stats()
	fmt.Printf("Done: %d added, %d total, %d read\n", added, stats.Total, stats.Read)
}
