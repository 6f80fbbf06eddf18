// Package images stores, validates and compresses book cover images.
package images

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shelfkeep/shelfkeep/internal/store"
)

// Storage keeps covers on the filesystem as {base}/covers/{id}.jpg.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

var _ store.BlobStore = (*Storage)(nil)

// NewStorage creates the covers directory under basePath.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, errors.New("base path cannot be empty")
	}

	dir := filepath.Join(basePath, "covers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}

	return &Storage{basePath: dir}, nil
}

// PutCover writes the cover for a book. The file is written to a temporary
// name and renamed so readers never see a partial image.
func (s *Storage) PutCover(_ context.Context, bookID int64, data []byte) error {
	if len(data) == 0 {
		return errors.New("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(bookID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // covers are not secret
		return fmt.Errorf("failed to write image file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move image file: %w", err)
	}
	return nil
}

// GetCover returns the cover bytes or store.ErrCoverNotFound.
func (s *Storage) GetCover(_ context.Context, bookID int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(bookID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrCoverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// DeleteCover removes the cover. A missing file is not an error.
func (s *Storage) DeleteCover(_ context.Context, bookID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(bookID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// HasCover reports whether a cover file exists.
func (s *Storage) HasCover(_ context.Context, bookID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(bookID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat image file: %w", err)
	}
}

// CoverIDs lists the books that have a cover file.
func (s *Storage) CoverIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list covers: %w", err)
	}

	var ids []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := ParseCoverPath(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Dir returns the directory holding the cover files.
func (s *Storage) Dir() string {
	return s.basePath
}

// ParseCoverPath extracts the book id from a cover file name or path.
func ParseCoverPath(path string) (int64, bool) {
	name, ok := strings.CutSuffix(filepath.Base(path), ".jpg")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Path returns the full filesystem path for a book's cover.
func (s *Storage) Path(bookID int64) string {
	return filepath.Join(s.basePath, strconv.FormatInt(bookID, 10)+".jpg")
}

// Hash returns the hex SHA-256 of a cover, used for ETags.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
