// Package main prints a summary of a library database.
//
// Usage:
//
//	go run ./cmd/dbinspect -data-path ~/Shelfkeep/data
//	go run ./cmd/dbinspect -backend sqlite -books
//	go run ./cmd/dbinspect -cover-backend filesystem
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/shelfkeep/shelfkeep/internal/config"
	"github.com/shelfkeep/shelfkeep/internal/di/providers"
	"github.com/shelfkeep/shelfkeep/internal/domain"
	"github.com/shelfkeep/shelfkeep/internal/logger"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/store"
)

type counter interface {
	Stats(ctx context.Context) (store.Counts, error)
}

func main() {
	home, _ := os.UserHomeDir()
	dataPath := flag.String("data-path", filepath.Join(home, "Shelfkeep", "data"), "Directory for library data")
	backend := flag.String("backend", config.StorageBadger, "Record storage backend (badger, sqlite)")
	coverBackend := flag.String("cover-backend", config.CoverBackendStore, "Where covers live (store, filesystem)")
	listBooks := flag.Bool("books", false, "List every book in stored order")
	asJSON := flag.Bool("json", false, "Print counts as JSON")
	flag.Parse()

	db, path, err := providers.OpenLibrary(config.StorageConfig{DataPath: *dataPath, Backend: *backend}, logger.Discard())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	c, ok := db.(counter)
	if !ok {
		fmt.Fprintf(os.Stderr, "Backend %s cannot report counts\n", *backend)
		os.Exit(1)
	}
	counts, err := c.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read counts: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(counts)
		return
	}

	goals, err := db.LoadGoals(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read goals: %v\n", err)
	}

	fmt.Println("=== Library Inspection ===")
	fmt.Printf("Database: %s (%s)\n", path, *backend)
	fmt.Printf("Books:    %s\n", humanize.Comma(int64(counts.Books)))
	fmt.Printf("Covers:   %s (%s)\n", humanize.Comma(int64(counts.Covers)), humanize.IBytes(uint64(counts.CoverSize))) //nolint:gosec // sizes are non-negative
	fmt.Printf("Last id:  %d\n", counts.LastID)
	fmt.Printf("Goals:    yearly %d, decades %d, lifetime %d\n", goals.Yearly, goals.Variety, goals.Lifetime)

	books, err := db.LoadBooks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read books: %v\n", err)
		os.Exit(1)
	}

	reportOrphans(ctx, db, books, *coverBackend, *dataPath)

	if !*listBooks {
		return
	}

	fmt.Println()
	for i, b := range books {
		marks := ""
		if b.IsRead {
			marks += " [read]"
		}
		if b.IsFavorite {
			marks += " [fav]"
		}
		if b.HasImage {
			marks += " [cover]"
		}
		fmt.Printf("%3d. #%d %s / %s, added %s%s\n", i+1, b.ID, b.Title, b.Author, humanize.Time(b.AddedDate), marks)
	}
}

// reportOrphans prints covers left behind by books that no longer exist.
func reportOrphans(ctx context.Context, db store.Library, books []domain.Book, coverBackend, dataPath string) {
	var lister store.CoverLister
	if coverBackend == config.CoverBackendFilesystem {
		files, err := images.NewStorage(dataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open cover directory: %v\n", err)
			return
		}
		lister = files
	} else if l, ok := db.(store.CoverLister); ok {
		lister = l
	} else {
		fmt.Println("Orphans:  not supported by this backend")
		return
	}

	ids, err := lister.CoverIDs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list covers: %v\n", err)
		return
	}

	orphans := store.OrphanCovers(books, ids)
	fmt.Printf("Orphans:  %s covers without a book\n", humanize.Comma(int64(len(orphans))))
	for _, id := range orphans {
		fmt.Printf("          #%d\n", id)
	}
}
