package memos

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	"github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/metrics"
)

// uploadField is the multipart field carrying the image.
const uploadField = "file"

type Handler struct {
	Memos         *journal.MemoService
	SampleDefault int
	SampleMax     int
}

func New(memos *journal.MemoService, sampleDefault, sampleMax int) *Handler {
	return &Handler{Memos: memos, SampleDefault: sampleDefault, SampleMax: sampleMax}
}

// Routes registers the memo endpoints behind auth. The image upload gets
// imageBody as its body limit, every other route jsonBody.
func (h *Handler) Routes(mux *http.ServeMux, auth, jsonBody, imageBody func(http.Handler) http.Handler) {
	mux.Handle("GET /memos/random", auth(http.HandlerFunc(h.Random)))
	mux.Handle("POST /memos/image-memo", imageBody(auth(http.HandlerFunc(h.UploadImage))))
	mux.Handle("POST /memos/{bookID}", jsonBody(auth(http.HandlerFunc(h.Attach))))
	mux.Handle("PATCH /memos/{id}", jsonBody(auth(http.HandlerFunc(h.Patch))))
	mux.Handle("DELETE /memos/{id}", auth(http.HandlerFunc(h.Delete)))
}

type memoReq struct {
	Kind     *string `json:"memo_type"`
	Content  *string `json:"content"`
	BookPage *int    `json:"memo_book_page"`
}

func requester(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
	}
	return id, ok
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// POST /memos/{bookID}
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	var req memoReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	m, err := h.Memos.Attach(r.Context(), r.PathValue("bookID"), memberID, journal.MemoDraft{
		Kind:     deref(req.Kind),
		Content:  deref(req.Content),
		BookPage: req.BookPage,
	})
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	metrics.MemoEvents.WithLabelValues("attach", string(m.Kind)).Inc()
	httpx.Created(w, m)
}

// POST /memos/image-memo (multipart, field "file"). Returns the URL to use as
// the content of an IMAGE memo.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apperr.Handle(w, r, tooBig)
			return
		}
		apperr.Handle(w, r, &journal.FieldError{Field: uploadField, Reason: "missing image file"})
		return
	}
	defer file.Close()

	url, err := h.Memos.UploadImage(r.Context(), memberID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	metrics.MemoEvents.WithLabelValues("upload", string(journal.KindImage)).Inc()
	httpx.Created(w, map[string]string{"url": url})
}

// PATCH /memos/{id}
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	var req memoReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	m, err := h.Memos.Update(r.Context(), r.PathValue("id"), memberID, journal.MemoPatch{
		Kind:     req.Kind,
		Content:  req.Content,
		BookPage: req.BookPage,
	})
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	metrics.MemoEvents.WithLabelValues("update", string(m.Kind)).Inc()
	httpx.OK(w, m)
}

// DELETE /memos/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	if err := h.Memos.Delete(r.Context(), r.PathValue("id"), memberID); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	metrics.MemoEvents.WithLabelValues("delete", "any").Inc()
	httpx.NoContent(w)
}

// GET /memos/random?size=
func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	memberID, ok := requester(w, r)
	if !ok {
		return
	}
	n := h.SampleDefault
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apperr.Handle(w, r, &journal.FieldError{Field: "size", Reason: "must be an integer"})
			return
		}
		n = v
	}
	if h.SampleMax > 0 {
		n = min(n, h.SampleMax)
	}
	memos, err := h.Memos.SampleRandom(r.Context(), memberID, n)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if memos == nil {
		memos = []journal.Memo{}
	}
	httpx.OK(w, memos)
}
