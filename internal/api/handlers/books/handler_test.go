package books_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5w1tchy/reading-journal/internal/api/handlers/books"
	"github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/journal/journaltest"
	"github.com/5w1tchy/reading-journal/internal/metrics"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newServer(seed ...journal.Book) (*http.ServeMux, *journaltest.Books) {
	store := journaltest.NewBooks(seed...)
	svc := journal.NewBookService(store, journaltest.NewMemos())
	svc.Now = func() time.Time { return t0 }
	mux := http.NewServeMux()
	auth := middlewares.RequireAuth(journaltest.Resolver{"tok-A": "A", "tok-B": "B"})
	books.New(svc, journal.NewViewAssembler(store)).Routes(mux, auth, middlewares.BodySizeLimit(1<<20))
	return mux, store
}

func do(mux http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, "success", env.Status)
	return env.Data
}

func TestCreate(t *testing.T) {
	mux, store := newServer()
	before := testutil.ToFloat64(metrics.BooksRegistered.WithLabelValues("FINISHED"))

	rec := do(mux, http.MethodPost, "/books", "tok-A", `{"title":"Dune","author":"Herbert","book_status":"finished","read_end_date":"2024-05-30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[journal.Book](t, rec)
	assert.Equal(t, "A", b.OwnerID)
	assert.Equal(t, journal.StatusFinished, b.Status)
	require.NotNil(t, b.FinishedAt)
	assert.Equal(t, "2024-05-30", b.FinishedAt.Format(time.DateOnly))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BooksRegistered.WithLabelValues("FINISHED")))
}

func TestCreate_Errors(t *testing.T) {
	mux, store := newServer()
	cases := []struct {
		name, token, body string
		want              int
	}{
		{"no token", "", `{"title":"Dune","author":"H","book_status":"READING"}`, http.StatusUnauthorized},
		{"bad json", "tok-A", `{"title":`, http.StatusBadRequest},
		{"bad status", "tok-A", `{"title":"Dune","author":"H","book_status":"SHELVED"}`, http.StatusBadRequest},
		{"no title", "tok-A", `{"author":"H","book_status":"READING"}`, http.StatusBadRequest},
		{"bad date", "tok-A", `{"title":"Dune","author":"H","book_status":"READING","read_start_date":"yesterday"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(mux, http.MethodPost, "/books", c.token, c.body)
			assert.Equal(t, c.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 0, store.Len())

	rec := do(mux, http.MethodPost, "/books", "tok-A", `{"title":"Dune","author":"H","book_status":"SHELVED"}`)
	assert.Contains(t, rec.Body.String(), `"book_status"`)
}

func TestPatch_OwnershipAndCoupling(t *testing.T) {
	mux, store := newServer(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})

	rec := do(mux, http.MethodPatch, "/books/1", "tok-B", `{"book_status":"FINISHED"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	stored, _ := store.FindByID(t.Context(), "1")
	assert.Equal(t, journal.StatusReading, stored.Status)

	rec = do(mux, http.MethodPatch, "/books/missing", "tok-A", `{"book_status":"FINISHED"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodPatch, "/books/1", "tok-A", `{"book_status":"FINISHED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[journal.Book](t, rec)
	require.NotNil(t, b.FinishedAt)
	assert.True(t, b.FinishedAt.Equal(t0))

	rec = do(mux, http.MethodPatch, "/books/1", "tok-A", `{"book_status":"READING"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decode[journal.Book](t, rec)
	assert.Nil(t, b.FinishedAt)
}

func TestDetail(t *testing.T) {
	mux, _ := newServer(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})

	rec := do(mux, http.MethodGet, "/books/1", "tok-A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memos":[]`)

	rec = do(mux, http.MethodGet, "/books/1", "tok-B", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLibrary(t *testing.T) {
	mux, _ := newServer(
		journal.Book{ID: "1", OwnerID: "A", Status: journal.StatusReading},
		journal.Book{ID: "2", OwnerID: "A", Status: journal.StatusFinished, FinishedAt: &t0},
		journal.Book{ID: "3", OwnerID: "A", Status: journal.StatusReading},
	)

	rec := do(mux, http.MethodGet, "/books/library?page=1&size=2&bookStatus=READING", "tok-A", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[journal.LibraryView](t, rec)
	require.Len(t, v.Data, 1)
	assert.Equal(t, "1", v.Data[0].ID)
	assert.Equal(t, journal.PageInfo{Page: 1, Size: 2, TotalElements: 3, TotalPages: 2}, v.PageInfo)

	for _, q := range []string{"page=0&bookStatus=READING", "size=x&bookStatus=READING", "bookStatus=DONE", ""} {
		rec = do(mux, http.MethodGet, "/books/library?"+q, "tok-A", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestCalendar(t *testing.T) {
	early := t0.Add(-48 * time.Hour)
	mux, _ := newServer(
		journal.Book{ID: "1", OwnerID: "A", Title: "Late", Status: journal.StatusFinished, FinishedAt: &t0},
		journal.Book{ID: "2", OwnerID: "A", Title: "Early", Status: journal.StatusFinished, FinishedAt: &early},
		journal.Book{ID: "3", OwnerID: "A", Title: "Open", Status: journal.StatusReading},
	)
	rec := do(mux, http.MethodGet, "/books/calendar", "tok-A", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[journal.CalendarView](t, rec)
	require.Len(t, v.Data, 2)
	assert.Equal(t, "2", v.Data[0].BookID)
	assert.Equal(t, "1", v.Data[1].BookID)
	assert.Equal(t, 10, v.PageInfo.Size)
}
