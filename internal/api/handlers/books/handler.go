package books

import (
	"net/http"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	"github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/metrics"
	"github.com/5w1tchy/reading-journal/internal/validate"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Handler struct {
	Books *journal.BookService
	Views *journal.ViewAssembler
}

func New(books *journal.BookService, views *journal.ViewAssembler) *Handler {
	return &Handler{Books: books, Views: views}
}

// Routes registers the book endpoints behind auth; writes also get jsonBody.
func (h *Handler) Routes(mux *http.ServeMux, auth, jsonBody func(http.Handler) http.Handler) {
	mux.Handle("POST /books", jsonBody(auth(http.HandlerFunc(h.Create))))
	mux.Handle("GET /books/library", auth(http.HandlerFunc(h.Library)))
	mux.Handle("GET /books/calendar", auth(http.HandlerFunc(h.Calendar)))
	mux.Handle("GET /books/{id}", auth(http.HandlerFunc(h.Detail)))
	mux.Handle("PATCH /books/{id}", jsonBody(auth(http.HandlerFunc(h.Patch))))
}

func requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
	}
	return id, ok
}

// POST /books
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	b, err := h.Books.Register(r.Context(), memberID, req.draft())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	metrics.BooksRegistered.WithLabelValues(string(b.Status)).Inc()
	httpx.Created(w, b)
}

// GET /books/{id}
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	d, err := h.Books.Detail(r.Context(), r.PathValue("id"), memberID)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, d)
}

// PATCH /books/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	var req patchReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	b, err := h.Books.Update(r.Context(), r.PathValue("id"), memberID, req.patch())
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if req.Status != nil {
		metrics.StatusChanges.WithLabelValues(string(b.Status)).Inc()
	}
	httpx.OK(w, b)
}

// GET /books/library?page=&size=&bookStatus=
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	v, err := h.Views.Library(r.Context(), memberID, page, size, r.URL.Query().Get("bookStatus"))
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, v)
}

// GET /books/calendar?page=&size=
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	v, err := h.Views.Calendar(r.Context(), memberID, page, size)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, v)
}

// pageParams defaults page to 1 and size to 10. Sizes above 100 are capped.
func pageParams(r *http.Request) (page, size int, err error) {
	q := r.URL.Query()
	page, size = 1, defaultPageSize
	if raw := q.Get("page"); raw != "" {
		if page, err = validate.ParsePositive("page", raw); err != nil {
			return 0, 0, &journal.FieldError{Field: "page", Reason: err.Error()}
		}
	}
	if raw := q.Get("size"); raw != "" {
		if size, err = validate.ParsePositive("size", raw); err != nil {
			return 0, 0, &journal.FieldError{Field: "size", Reason: err.Error()}
		}
	}
	return page, min(size, maxPageSize), nil
}
