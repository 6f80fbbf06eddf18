package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// PutCover stores the encoded cover for a book, replacing any previous one.
func (s *Store) PutCover(_ context.Context, bookID int64, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(coverKey(bookID), data)
	})
	if err != nil {
		return fmt.Errorf("put cover %d: %w", bookID, err)
	}
	return nil
}

// GetCover returns the stored cover bytes.
func (s *Store) GetCover(_ context.Context, bookID int64) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(coverKey(bookID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCoverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cover %d: %w", bookID, err)
	}
	return data, nil
}

// DeleteCover removes a cover. Deleting a missing cover is not an error.
func (s *Store) DeleteCover(_ context.Context, bookID int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(coverKey(bookID))
	})
	if err != nil {
		return fmt.Errorf("delete cover %d: %w", bookID, err)
	}
	return nil
}

// HasCover reports whether a cover is stored for the book.
func (s *Store) HasCover(_ context.Context, bookID int64) (bool, error) {
	ok, err := s.exists(coverKey(bookID))
	if err != nil {
		return false, fmt.Errorf("check cover %d: %w", bookID, err)
	}
	return ok, nil
}

// CoverIDs lists the ids of all books with a stored cover.
func (s *Store) CoverIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(coverKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if id, ok := parseCoverKey(it.Item().Key()); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list covers: %w", err)
	}
	return ids, nil
}
