package view

import (
	"context"
	"log/slog"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// CoverReader fetches stored cover bytes.
type CoverReader interface {
	GetCover(ctx context.Context, bookID int64) ([]byte, error)
}

// Row is one rendered book. Cover is nil when the book has no cover or
// it could not be read; the renderer shows a placeholder then.
type Row struct {
	Cover []byte      `json:"cover,omitempty"`
	Book  domain.Book `json:"book"`
}

// Rendered is a Result with covers resolved.
type Rendered struct {
	Rows  []Row           `json:"rows"`
	State State           `json:"state"`
	View  domain.ViewMode `json:"view"`
	Total int             `json:"total"`
}

// Pipeline renders views with covers.
type Pipeline struct {
	covers CoverReader
	logger *slog.Logger
}

// NewPipeline creates a Pipeline reading covers from covers.
func NewPipeline(covers CoverReader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{covers: covers, logger: logger}
}

// Render applies q and resolves covers for the visible rows that have one.
// A failed read leaves that row without a cover.
func (p *Pipeline) Render(ctx context.Context, books []domain.Book, q Query) Rendered {
	res := Apply(books, q)
	out := Rendered{
		Rows:  make([]Row, len(res.Books)),
		State: res.State,
		View:  res.View,
		Total: res.Total,
	}

	for i, b := range res.Books {
		out.Rows[i].Book = b
		if !b.HasImage || p.covers == nil {
			continue
		}
		if ctx.Err() != nil {
			continue
		}
		data, err := p.covers.GetCover(ctx, b.ID)
		if err != nil {
			p.logger.Warn("cover unavailable, using placeholder", "book_id", b.ID, "error", err)
			continue
		}
		out.Rows[i].Cover = data
	}
	return out
}
