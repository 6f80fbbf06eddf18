package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	domainerrors "github.com/shelfkeep/shelfkeep/internal/errors"
	"github.com/shelfkeep/shelfkeep/internal/media/images"
)

func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "previewCover",
		Method:       http.MethodPost,
		Path:         "/api/v1/covers/preview",
		Summary:      "Preview cover compression",
		Description:  "Compresses an uploaded image without storing it and reports the savings",
		Tags:         []string{"Covers"},
		MaxBodyBytes: s.maxUpload,
		Middlewares:  huma.Middlewares{s.uploadLimit},
	}, s.handlePreviewCover)

	// Direct chi route for raw cover bytes with ETag revalidation.
	s.router.Get("/api/v1/books/{id}/cover", s.handleServeCover)
}

// === DTOs ===

// PreviewCoverInput carries the raw image upload.
type PreviewCoverInput struct {
	RawBody []byte
}

// PreviewCoverResponse describes the compressed cover.
type PreviewCoverResponse struct {
	Data         []byte `json:"data" doc:"Compressed JPEG, base64 encoded"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OriginalSize int64  `json:"originalSize" doc:"Upload size in bytes"`
	Size         int64  `json:"size" doc:"Compressed size in bytes"`
	SavedPercent int    `json:"savedPercent"`
	BlurHash     string `json:"blurHash,omitempty"`
}

// PreviewCoverOutput wraps the preview.
type PreviewCoverOutput struct {
	Body PreviewCoverResponse
}

// === Handlers ===

func (s *Server) handlePreviewCover(ctx context.Context, input *PreviewCoverInput) (*PreviewCoverOutput, error) {
	c, err := s.services.Library.PreviewCover(ctx, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &PreviewCoverOutput{Body: PreviewCoverResponse{
		Data:         c.Data,
		Width:        c.Width,
		Height:       c.Height,
		OriginalSize: c.OriginalSize,
		Size:         c.Size,
		SavedPercent: c.SavedPercent(),
		BlurHash:     c.BlurHash,
	}}, nil
}

func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid book id", http.StatusBadRequest)
		return
	}

	data, err := s.services.Library.Cover(r.Context(), bookID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			http.Error(w, "cover not found", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to read cover", "book_id", bookID, "error", err)
		http.Error(w, "failed to read cover", http.StatusInternalServerError)
		return
	}

	etag := `"` + images.Hash(data) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := "image/jpeg"
	if mime, err := images.DetectImage(data); err == nil {
		contentType = mime
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("cover write interrupted", "book_id", bookID, "error", err)
	}
}
