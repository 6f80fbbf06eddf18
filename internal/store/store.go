package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Writes reach disk before Save returns
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger)
}

// NewInMemory opens a Badger database that lives only in memory.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("Badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// LoadBooks returns the persisted collection in order. An absent collection
// loads as empty.
func (s *Store) LoadBooks(_ context.Context) ([]domain.Book, error) {
	var books []domain.Book
	err := s.get([]byte(KeyBooks), &books)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []domain.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

// SaveBooks replaces the persisted collection.
func (s *Store) SaveBooks(_ context.Context, books []domain.Book) error {
	if books == nil {
		books = []domain.Book{}
	}
	if err := s.set([]byte(KeyBooks), books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

// LoadGoals returns the stored goals with per-field fallback to defaults.
func (s *Store) LoadGoals(_ context.Context) (domain.Goals, error) {
	raw := make(map[string]string, len(domain.GoalKinds))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, kind := range domain.GoalKinds {
			key := GoalKey(kind)
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			raw[key] = string(val)
		}
		return nil
	})
	if err != nil {
		return domain.DefaultGoals(), fmt.Errorf("load goals: %w", err)
	}
	return DecodeGoals(func(key string) (string, bool) {
		v, ok := raw[key]
		return v, ok
	}), nil
}

// SaveGoals writes all three goal values in one transaction.
func (s *Store) SaveGoals(_ context.Context, goals domain.Goals) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for key, val := range EncodeGoals(goals) {
			if err := txn.Set([]byte(key), []byte(val)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// LoadLastID returns the id high-water mark, or 0 if none is stored.
func (s *Store) LoadLastID(_ context.Context) (int64, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(KeyLastID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load last id: %w", err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		s.logger.Warn("ignoring corrupt id high-water mark", "value", string(raw))
		return 0, nil
	}
	return id, nil
}

// SaveLastID stores the id high-water mark.
func (s *Store) SaveLastID(_ context.Context, id int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(KeyLastID), strconv.AppendInt(nil, id, 10))
	})
	if err != nil {
		return fmt.Errorf("save last id: %w", err)
	}
	return nil
}

// Stats counts what the database holds.
func (s *Store) Stats(ctx context.Context) (Counts, error) {
	var c Counts

	books, err := s.LoadBooks(ctx)
	if err != nil {
		return c, err
	}
	c.Books = len(books)

	if c.LastID, err = s.LoadLastID(ctx); err != nil {
		return c, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(coverKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			c.Covers++
			c.CoverSize += it.Item().ValueSize()
		}
		return nil
	})
	if err != nil {
		return c, fmt.Errorf("count covers: %w", err)
	}
	return c, nil
}

// get retrieves a JSON value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a JSON value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
