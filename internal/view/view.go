// Package view turns the collection into the ordered rows a renderer shows:
// filter, then search, then a stable sort. The collection order is never
// changed here.
package view

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// State tells an empty library apart from a query that matched nothing.
type State string

// States.
const (
	StateOK           State = "ok"
	StateEmptyLibrary State = "empty-library"
	StateNoResults    State = "no-results"
)

// Query selects and orders the rows of a view.
type Query struct {
	Filter domain.Filter   `json:"filter"`
	Search string          `json:"q"`
	Sort   domain.SortKey  `json:"sort"`
	View   domain.ViewMode `json:"view"`
}

// ParseQuery builds a Query from raw parameters. Empty values take defaults.
func ParseQuery(filter, search, sort, mode string) (Query, error) {
	f, err := domain.ParseFilter(filter)
	if err != nil {
		return Query{}, err
	}
	k, err := domain.ParseSortKey(sort)
	if err != nil {
		return Query{}, err
	}
	v, err := domain.ParseViewMode(mode)
	if err != nil {
		return Query{}, err
	}
	return Query{Filter: f, Search: search, Sort: k, View: v}, nil
}

// Result is the outcome of Apply.
type Result struct {
	Books []domain.Book   `json:"books"`
	State State           `json:"state"`
	View  domain.ViewMode `json:"view"`
	Total int             `json:"total"`
}

// Apply filters, searches and sorts books. The input slice is not modified.
func Apply(books []domain.Book, q Query) Result {
	if !q.View.Valid() {
		q.View = domain.ViewGrid
	}
	res := Result{View: q.View, Total: len(books), Books: []domain.Book{}}
	if len(books) == 0 {
		res.State = StateEmptyLibrary
		return res
	}

	m := newMatcher(q.Search)
	for i := range books {
		if q.Filter.Match(&books[i]) && m.match(&books[i]) {
			res.Books = append(res.Books, books[i])
		}
	}

	sortBooks(res.Books, q.Sort)

	if len(res.Books) == 0 {
		res.State = StateNoResults
	} else {
		res.State = StateOK
	}
	return res
}

type matcher struct {
	fold  cases.Caser
	query string
}

func newMatcher(search string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.query = m.normalize(strings.TrimSpace(search))
	return m
}

func (m *matcher) normalize(s string) string {
	return m.fold.String(norm.NFC.String(s))
}

func (m *matcher) match(b *domain.Book) bool {
	if m.query == "" {
		return true
	}
	for _, field := range []string{b.Title, b.Author, b.Genre} {
		if strings.Contains(m.normalize(field), m.query) {
			return true
		}
	}
	return strings.Contains(strconv.Itoa(b.Year), m.query)
}

// sortBooks orders books in place. Equal keys keep their collection order.
func sortBooks(books []domain.Book, key domain.SortKey) {
	switch key {
	case domain.SortOldest:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return a.AddedDate.Compare(b.AddedDate)
		})
	case domain.SortTitle:
		c := collate.New(language.Und)
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return c.CompareString(a.Title, b.Title)
		})
	case domain.SortAuthor:
		c := collate.New(language.Und)
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return c.CompareString(a.Author, b.Author)
		})
	case domain.SortYearDesc:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return b.Year - a.Year
		})
	case domain.SortYearAsc:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return a.Year - b.Year
		})
	default:
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return b.AddedDate.Compare(a.AddedDate)
		})
	}
}
