package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/view"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the filtered, searched and sorted view of the library with covers",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book at the front of the library, with an optional base64 cover",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  addBodyLimit(s.maxUpload),
		Middlewares:   huma.Middlewares{s.uploadLimit},
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "reorderBooks",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/order",
		Summary:     "Reorder books",
		Description: "Replaces the library order. Books not listed are removed",
		Tags:        []string{"Books"},
	}, s.handleReorderBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its cover",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/read",
		Summary:     "Toggle read",
		Tags:        []string{"Books"},
	}, s.handleToggleRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/favorite",
		Summary:     "Toggle favorite",
		Tags:        []string{"Books"},
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book and its cover. Requires confirm=true",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)
}

// === DTOs ===

// ListBooksInput contains the view query.
type ListBooksInput struct {
	Filter string `query:"filter" enum:"all,read,unread,favorites" doc:"Which books to show (default: all)"`
	Search string `query:"q" maxLength:"200" doc:"Case-insensitive search over title, author, genre and year"`
	Sort   string `query:"sort" enum:"newest,oldest,title,author,year-desc,year-asc" doc:"Display order (default: newest)"`
	View   string `query:"view" enum:"grid,list,cover" doc:"Layout density (default: grid)"`
}

// ListBooksOutput contains the rendered view.
type ListBooksOutput struct {
	Body view.Rendered
}

// AddBookRequest is the body for adding a book.
type AddBookRequest struct {
	Title      string  `json:"title,omitempty" doc:"Book title"`
	Author     string  `json:"author,omitempty" doc:"Author"`
	Year       *int    `json:"year,omitempty" doc:"Publication year"`
	Genre      string  `json:"genre,omitempty" doc:"Genre"`
	Pages      int     `json:"pages,omitempty" doc:"Page count"`
	Rating     float64 `json:"rating,omitempty" doc:"Rating from 0 to 5, 0 means unrated"`
	Notes      string  `json:"notes,omitempty" doc:"Free-form notes"`
	IsRead     bool    `json:"isRead,omitempty" doc:"Already read"`
	IsFavorite bool    `json:"isFavorite,omitempty" doc:"Marked as favorite"`
	Cover      []byte  `json:"cover,omitempty" doc:"Cover image bytes, base64 encoded"`
}

func (r AddBookRequest) toDomain() domain.NewBook {
	return domain.NewBook{
		Title:      r.Title,
		Author:     r.Author,
		Year:       r.Year,
		Genre:      r.Genre,
		Pages:      r.Pages,
		Rating:     r.Rating,
		Notes:      r.Notes,
		IsRead:     r.IsRead,
		IsFavorite: r.IsFavorite,
	}
}

// AddBookInput wraps the add request for Huma.
type AddBookInput struct {
	Body AddBookRequest
}

// AddBookOutput contains the created book, its cover summary and warnings.
type AddBookOutput struct {
	Body *service.AddResult
}

// BookIDInput identifies one book.
type BookIDInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// BookResponse is a book with its cover.
type BookResponse struct {
	Book  domain.Book `json:"book"`
	Cover []byte      `json:"cover,omitempty" doc:"Cover image bytes, base64 encoded"`
}

// BookOutput wraps a single book.
type BookOutput struct {
	Body BookResponse
}

// DeleteBookInput identifies the book to delete.
type DeleteBookInput struct {
	ID      int64 `path:"id" doc:"Book ID"`
	Confirm bool  `query:"confirm" doc:"Must be true to delete"`
}

// DeleteBookResponse reports whether anything was removed.
type DeleteBookResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteBookOutput wraps the delete result.
type DeleteBookOutput struct {
	Body DeleteBookResponse
}

// ReorderInput carries the new order.
type ReorderInput struct {
	Body struct {
		Order []int64 `json:"order" doc:"Book ids in their new order"`
	}
}

// OrderResponse is the resulting library order.
type OrderResponse struct {
	Order []int64 `json:"order"`
}

// OrderOutput wraps an order.
type OrderOutput struct {
	Body OrderResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	q, err := view.ParseQuery(input.Filter, input.Search, input.Sort, input.View)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	rendered := s.services.Pipeline.Render(ctx, s.services.Library.Books(), q)
	return &ListBooksOutput{Body: rendered}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*AddBookOutput, error) {
	result, err := s.services.Library.AddBook(ctx, input.Body.toDomain(), input.Body.Cover)
	if err != nil {
		return nil, err
	}
	return &AddBookOutput{Body: result}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, ok := s.services.Library.Book(input.ID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %d not found", input.ID)
	}

	resp := BookResponse{Book: book}
	if book.HasImage {
		data, err := s.services.Library.Cover(ctx, input.ID)
		if err != nil {
			s.logger.Warn("cover unavailable", "book_id", input.ID, "error", err)
		} else {
			resp.Cover = data
		}
	}
	return &BookOutput{Body: resp}, nil
}

func (s *Server) handleToggleRead(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, ok := s.services.Library.ToggleRead(ctx, input.ID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %d not found", input.ID)
	}
	return &BookOutput{Body: BookResponse{Book: *book}}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, ok := s.services.Library.ToggleFavorite(ctx, input.ID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %d not found", input.ID)
	}
	return &BookOutput{Body: BookResponse{Book: *book}}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*DeleteBookOutput, error) {
	var confirm service.Confirmer
	if input.Confirm {
		confirm = service.Confirmed
	}
	deleted, err := s.services.Library.DeleteBook(ctx, input.ID, confirm)
	if err != nil {
		return nil, err
	}
	return &DeleteBookOutput{Body: DeleteBookResponse{Deleted: deleted}}, nil
}

func (s *Server) handleReorderBooks(ctx context.Context, input *ReorderInput) (*OrderOutput, error) {
	order := s.services.Library.Reorder(ctx, input.Body.Order)
	return &OrderOutput{Body: OrderResponse{Order: order}}, nil
}
