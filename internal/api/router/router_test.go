package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/reading-journal/internal/api/handlers/books"
	"github.com/5w1tchy/reading-journal/internal/api/handlers/memos"
	"github.com/5w1tchy/reading-journal/internal/api/router"
	"github.com/5w1tchy/reading-journal/internal/auth"
	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/journal/journaltest"
)

func newRouter() http.Handler {
	bs := journaltest.NewBooks(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})
	ms := journaltest.NewMemos()
	members := journaltest.NewMembers()
	cfg := config.Config{
		HTTP:   config.HTTP{AllowedOrigins: []string{"https://app.test"}, Gzip: true},
		Limits: config.Limits{MaxBodySize: 64, MaxImageBytes: 1 << 10, LoginWindow: time.Minute},
	}
	return router.Router(router.Deps{
		Config:   cfg,
		Resolver: journaltest.Resolver{"tok-A": "A"},
		Auth:     &auth.Handler{Members: members, Memos: ms},
		Books:    books.New(journal.NewBookService(bs, ms), journal.NewViewAssembler(bs)),
		Memos:    memos.New(journal.NewMemoService(bs, ms, &journaltest.Uploader{}), 5, 50),
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newRouter()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Response-Time"))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAuthRequired(t *testing.T) {
	h := newRouter()
	for _, target := range []string{"/books/1", "/books/library?bookStatus=READING", "/memos/random", "/members/me"} {
		rec := serve(h, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
	req.Header.Set("Authorization", "Bearer tok-A")
	rec := serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"`+strings.Repeat("x", 128)+`","author":"A","book_status":"READING"}`))
	req.Header.Set("Authorization", "Bearer tok-A")
	rec := serve(h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCorsPreflight(t *testing.T) {
	h := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	req.Header.Set("Origin", "https://app.test")
	rec := serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(newRouter(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
