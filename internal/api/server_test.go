package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfkeep/shelfkeep/internal/domain"
	"github.com/shelfkeep/shelfkeep/internal/ratelimit"
	"github.com/shelfkeep/shelfkeep/internal/reorder"
	"github.com/shelfkeep/shelfkeep/internal/service"
	"github.com/shelfkeep/shelfkeep/internal/sse"
	"github.com/shelfkeep/shelfkeep/internal/store"
	"github.com/shelfkeep/shelfkeep/internal/validation"
	"github.com/shelfkeep/shelfkeep/internal/view"
)

type testServer struct {
	*Server
	api humatest.TestAPI
	lib *service.LibraryService
}

func setupTestServer(t *testing.T, configure ...func(*Options)) *testServer {
	t.Helper()

	db, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	events := sse.NewManager(nil)
	lib := service.NewLibraryService(service.Deps{
		Records:   db,
		Goals:     db,
		Covers:    db,
		Sequence:  db,
		Validator: validation.New(),
		Events:    events,
		Notifier:  events,
	})
	require.NoError(t, lib.Load(context.Background()))

	opts := Options{AllowedOrigins: []string{"http://localhost:5173"}}
	for _, c := range configure {
		c(&opts)
	}

	s := NewServer(&Services{
		Library:  lib,
		Drags:    reorder.NewController(lib, 0, nil),
		Pipeline: view.NewPipeline(lib, nil),
		Events:   events,
	}, opts, nil)

	return &testServer{Server: s, api: humatest.Wrap(t, s.API()), lib: lib}
}

func (ts *testServer) addBook(t *testing.T, body map[string]any) domain.Book {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out service.AddResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out.Book
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 90))
	for y := range 90 {
		for x := range 60 {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 2), 60, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// noiseJPEG encodes random pixels, which JPEG cannot shrink much, so the
// payload lands well above a megabyte.
func noiseJPEG(t *testing.T, size int) []byte {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.UintN(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "0 books", body.Components["library"].Message)
}

func TestAddAndListBooks(t *testing.T) {
	ts := setupTestServer(t)

	ts.addBook(t, map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965, "isRead": true})
	ts.addBook(t, map[string]any{"title": "Beloved", "author": "Toni Morrison", "year": 1987})

	resp := ts.api.Get("/api/v1/books?filter=read")
	require.Equal(t, http.StatusOK, resp.Code)
	out := decode[view.Rendered](t, resp)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Dune", out.Rows[0].Book.Title)
	assert.Equal(t, view.StateOK, out.State)

	resp = ts.api.Get("/api/v1/books?q=nothing-matches")
	out = decode[view.Rendered](t, resp)
	assert.Equal(t, view.StateNoResults, out.State)
}

func TestListBooks_EmptyLibrary(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, view.StateEmptyLibrary, decode[view.Rendered](t, resp).State)
}

func TestAddBook_ValidationError(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/books", map[string]any{"title": "No author", "year": 2001})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "VALIDATION", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "author")
	assert.Empty(t, ts.lib.Books())
}

func TestGetBookAndToggle(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.addBook(t, map[string]any{"title": "Dune", "author": "Herbert", "year": 1965})
	path := "/api/v1/books/" + strconv.FormatInt(book.ID, 10)

	resp := ts.api.Get(path)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post(path + "/read")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[BookResponse](t, resp).Book.IsRead)

	resp = ts.api.Post(path + "/favorite")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[BookResponse](t, resp).Book.IsFavorite)

	resp = ts.api.Post("/api/v1/books/12345/read")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteBook_RequiresConfirmation(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.addBook(t, map[string]any{"title": "Dune", "author": "Herbert", "year": 1965})
	path := "/api/v1/books/" + strconv.FormatInt(book.ID, 10)

	resp := ts.api.Delete(path)
	assert.Equal(t, http.StatusPreconditionRequired, resp.Code)
	assert.Len(t, ts.lib.Books(), 1)

	resp = ts.api.Delete(path + "?confirm=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[DeleteBookResponse](t, resp).Deleted)
	assert.Empty(t, ts.lib.Books())
}

func TestReorderBooks(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.addBook(t, map[string]any{"title": "A", "author": "X", "year": 2000})
	b := ts.addBook(t, map[string]any{"title": "B", "author": "X", "year": 2000})

	resp := ts.api.Put("/api/v1/books/order", map[string]any{"order": []int64{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []int64{a.ID, b.ID}, decode[OrderResponse](t, resp).Order)
}

func TestGoalsAndStats(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/goals")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, domain.DefaultGoals(), decode[domain.Goals](t, resp))

	resp = ts.api.Put("/api/v1/goals", map[string]any{"yearly": 10, "variety": 3, "lifetime": 200})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Put("/api/v1/goals", map[string]any{"yearly": 400, "variety": 3, "lifetime": 200})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 10, ts.lib.Goals().Yearly)

	ts.addBook(t, map[string]any{"title": "Dune", "author": "Herbert", "year": 1965, "isRead": true})
	resp = ts.api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	st := decode[domain.Stats](t, resp)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 100, st.CompletionPercent)
	assert.Equal(t, 10, st.Goals.Yearly.Target)
}

func TestCoverRoute_ETag(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.addBook(t, map[string]any{"title": "Dune", "author": "Herbert", "year": 1965, "cover": testJPEG(t)})
	require.True(t, book.HasImage)
	path := "/api/v1/books/" + strconv.FormatInt(book.ID, 10) + "/cover"

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books/999/cover", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDragLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	a := ts.addBook(t, map[string]any{"title": "A", "author": "X", "year": 2000})
	b := ts.addBook(t, map[string]any{"title": "B", "author": "X", "year": 2000})
	c := ts.addBook(t, map[string]any{"title": "C", "author": "X", "year": 2000})
	// Library order: C, B, A.

	resp := ts.api.Post("/api/v1/drags", map[string]any{"visible": []int64{c.ID, b.ID, a.ID}, "moving": c.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	drag := decode[DragResponse](t, resp)

	resp = ts.api.Patch("/api/v1/drags/"+drag.ID, map[string]any{"target": a.ID, "offset": 80, "width": 100})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, decode[DragResponse](t, resp).Order)

	resp = ts.api.Post("/api/v1/drags/"+drag.ID+"/drop", map[string]any{"target": a.ID})
	require.Equal(t, http.StatusOK, resp.Code)
	drop := decode[DropResponse](t, resp)
	assert.True(t, drop.Committed)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, domain.IDs(ts.lib.Books()))

	resp = ts.api.Delete("/api/v1/drags/" + drag.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, func(o *Options) { o.UploadLimiter = limiter })

	body := map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965}
	for range 2 {
		resp := ts.api.Post("/api/v1/books", body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/books", body)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	apiErr := decode[map[string]any](t, resp)
	assert.Equal(t, "RATE_LIMITED", apiErr["code"])
	assert.Len(t, ts.lib.Books(), 2)

	// Reads are never throttled.
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/books").Code)
}

func TestAddBook_LargeCoverAccepted(t *testing.T) {
	ts := setupTestServer(t)

	cover := noiseJPEG(t, 1000)
	require.Greater(t, len(cover), 1<<20)
	require.Less(t, len(cover), 5<<20)

	book := ts.addBook(t, map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965, "cover": cover})
	assert.True(t, book.HasImage)

	data, err := ts.lib.Cover(context.Background(), book.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), 300<<10)
}

func TestAddBook_BodyTooLarge(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.MaxUploadBytes = 1 << 10 })

	resp := ts.api.Post("/api/v1/books", map[string]any{
		"title": "Dune", "author": "Frank Herbert", "year": 1965,
		"cover": bytes.Repeat([]byte{0xAB}, 200<<10),
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	apiErr := decode[map[string]any](t, resp)
	assert.Equal(t, "VALIDATION", apiErr["code"])
	assert.Empty(t, ts.lib.Books())
}
