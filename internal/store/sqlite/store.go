// Package sqlite implements the library stores on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	"github.com/shelfkeep/shelfkeep/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for the library.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ store.Library     = (*Store)(nil)
	_ store.CoverLister = (*Store)(nil)
)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("SQLite database opened", "path", path)

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadBooks returns the persisted collection in order.
func (s *Store) LoadBooks(ctx context.Context) ([]domain.Book, error) {
	raw, ok, err := s.getValue(ctx, store.KeyBooks)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	books := []domain.Book{}
	if !ok {
		return books, nil
	}
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

// SaveBooks replaces the persisted collection.
func (s *Store) SaveBooks(ctx context.Context, books []domain.Book) error {
	if books == nil {
		books = []domain.Book{}
	}
	data, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode books: %w", err)
	}
	if err := s.setValue(ctx, s.db, store.KeyBooks, string(data)); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

// LoadGoals returns the stored goals with per-field fallback to defaults.
func (s *Store) LoadGoals(ctx context.Context) (domain.Goals, error) {
	raw := make(map[string]string, len(domain.GoalKinds))
	for _, kind := range domain.GoalKinds {
		key := store.GoalKey(kind)
		v, ok, err := s.getValue(ctx, key)
		if err != nil {
			return domain.DefaultGoals(), fmt.Errorf("load goals: %w", err)
		}
		if ok {
			raw[key] = v
		}
	}
	return store.DecodeGoals(func(key string) (string, bool) {
		v, ok := raw[key]
		return v, ok
	}), nil
}

// SaveGoals writes all three goal values in one transaction.
func (s *Store) SaveGoals(ctx context.Context, goals domain.Goals) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for key, val := range store.EncodeGoals(goals) {
		if err := s.setValue(ctx, tx, key, val); err != nil {
			return fmt.Errorf("save goals: %w", err)
		}
	}
	return tx.Commit()
}

// LoadLastID returns the id high-water mark, or 0 if none is stored.
func (s *Store) LoadLastID(ctx context.Context) (int64, error) {
	raw, ok, err := s.getValue(ctx, store.KeyLastID)
	if err != nil {
		return 0, fmt.Errorf("load last id: %w", err)
	}
	if !ok {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn("ignoring corrupt id high-water mark", "value", raw)
		return 0, nil
	}
	return id, nil
}

// SaveLastID stores the id high-water mark.
func (s *Store) SaveLastID(ctx context.Context, id int64) error {
	if err := s.setValue(ctx, s.db, store.KeyLastID, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("save last id: %w", err)
	}
	return nil
}

// PutCover stores the encoded cover for a book, replacing any previous one.
func (s *Store) PutCover(ctx context.Context, bookID int64, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO covers (book_id, data, size, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			data = excluded.data, size = excluded.size, updated_at = excluded.updated_at`,
		bookID, data, len(data), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("put cover %d: %w", bookID, err)
	}
	return nil
}

// GetCover returns the stored cover bytes.
func (s *Store) GetCover(ctx context.Context, bookID int64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM covers WHERE book_id = ?`, bookID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCoverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cover %d: %w", bookID, err)
	}
	return data, nil
}

// DeleteCover removes a cover. Deleting a missing cover is not an error.
func (s *Store) DeleteCover(ctx context.Context, bookID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM covers WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("delete cover %d: %w", bookID, err)
	}
	return nil
}

// HasCover reports whether a cover is stored for the book.
func (s *Store) HasCover(ctx context.Context, bookID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM covers WHERE book_id = ?`, bookID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check cover %d: %w", bookID, err)
	}
	return n > 0, nil
}

// CoverIDs lists the ids of all books with a stored cover.
func (s *Store) CoverIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id FROM covers ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("list covers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cover id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list covers: %w", err)
	}
	return ids, nil
}

// Stats counts what the database holds.
func (s *Store) Stats(ctx context.Context) (store.Counts, error) {
	var c store.Counts

	books, err := s.LoadBooks(ctx)
	if err != nil {
		return c, err
	}
	c.Books = len(books)

	if c.LastID, err = s.LoadLastID(ctx); err != nil {
		return c, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(size), 0) FROM covers`).
		Scan(&c.Covers, &c.CoverSize)
	if err != nil {
		return c, fmt.Errorf("count covers: %w", err)
	}
	return c, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) getValue(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) setValue(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(s.now()))
	return err
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
