package domain

import "fmt"

// Filter selects which books a view shows. Filters are mutually exclusive.
type Filter string

// Filters.
const (
	FilterAll       Filter = "all"
	FilterRead      Filter = "read"
	FilterUnread    Filter = "unread"
	FilterFavorites Filter = "favorites"
)

// Valid returns true if the filter is a recognized value.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterRead, FilterUnread, FilterFavorites:
		return true
	default:
		return false
	}
}

// Match reports whether b passes the filter.
func (f Filter) Match(b *Book) bool {
	switch f {
	case FilterRead:
		return b.IsRead
	case FilterUnread:
		return !b.IsRead
	case FilterFavorites:
		return b.IsFavorite
	default:
		return true
	}
}

// SortKey orders a view. It never changes the collection order.
type SortKey string

// Sort keys.
const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortTitle    SortKey = "title"
	SortAuthor   SortKey = "author"
	SortYearDesc SortKey = "year-desc"
	SortYearAsc  SortKey = "year-asc"
)

// Valid returns true if the sort key is a recognized value.
func (s SortKey) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortTitle, SortAuthor, SortYearDesc, SortYearAsc:
		return true
	default:
		return false
	}
}

// ViewMode only affects presentation density.
type ViewMode string

// View modes.
const (
	ViewGrid  ViewMode = "grid"
	ViewList  ViewMode = "list"
	ViewCover ViewMode = "cover"
)

// Valid returns true if the view mode is a recognized value.
func (v ViewMode) Valid() bool {
	switch v {
	case ViewGrid, ViewList, ViewCover:
		return true
	default:
		return false
	}
}

// ParseFilter parses s, defaulting to FilterAll when empty.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// ParseSortKey parses s, defaulting to SortNewest when empty.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortNewest, nil
	}
	k := SortKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

// ParseViewMode parses s, defaulting to ViewGrid when empty.
func ParseViewMode(s string) (ViewMode, error) {
	if s == "" {
		return ViewGrid, nil
	}
	v := ViewMode(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown view mode %q", s)
	}
	return v, nil
}
