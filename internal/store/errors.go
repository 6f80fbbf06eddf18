package store

import "errors"

// ErrCoverNotFound is returned by GetCover when no cover is stored for a book.
var ErrCoverNotFound = errors.New("cover not found")
