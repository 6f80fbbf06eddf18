// Package api provides the localhost HTTP API for the Shelfkeep library.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfkeep/shelfkeep/internal/media/images"
	"github.com/shelfkeep/shelfkeep/internal/ratelimit"
	"github.com/shelfkeep/shelfkeep/internal/reorder"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/sse"
	"github.com/shelfkeep/shelfkeep/internal/view"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services groups everything the handlers call.
type Services struct {
	Library  *service.LibraryService
	Drags    *reorder.Controller
	Pipeline *view.Pipeline
	Events   *sse.Manager
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// UploadLimiter throttles cover processing per client. Nil disables it.
	UploadLimiter *ratelimit.KeyedRateLimiter
	// MaxUploadBytes is the largest accepted cover image; 0 uses
	// images.DefaultMaxUploadBytes. Request bodies are sized from it.
	MaxUploadBytes int64
}

// jsonOverhead covers the non-cover fields of an add request.
const jsonOverhead = 64 << 10

// addBodyLimit is the largest addBook body: the base64 cover plus fields.
func addBodyLimit(maxUpload int64) int64 {
	return (maxUpload+2)/3*4 + jsonOverhead
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	router    *chi.Mux
	api       huma.API
	sse       *sse.Handler
	limiter   *ratelimit.KeyedRateLimiter
	maxUpload int64
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := chi.NewRouter()
	s := &Server{
		services:  services,
		router:    router,
		limiter:   opts.UploadLimiter,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = images.DefaultMaxUploadBytes
	}
	if services.Events != nil {
		s.sse = sse.NewHandler(services.Events, logger)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Shelfkeep API", Version)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut,
				http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", "X-Request-ID"},
			ExposedHeaders: []string{"ETag", "Retry-After", "X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerCoverRoutes()
	s.registerGoalRoutes()
	s.registerDragRoutes()

	if s.sse != nil {
		s.router.Get("/api/v1/events", s.sse.ServeHTTP)
	}
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
