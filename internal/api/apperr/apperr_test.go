package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{journal.ErrNotAuthenticated, http.StatusUnauthorized},
		{fmt.Errorf("find book: %w", journal.ErrResourceNotOwned), http.StatusNotFound},
		{journal.ErrResourceNotFound, http.StatusNotFound},
		{journal.ErrInvalidStatus, http.StatusBadRequest},
		{&journal.FieldError{Field: "title", Reason: "required"}, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{&pgconn.PgError{Code: "23505", ConstraintName: "members_email_key"}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		Handle(rr, req, c.err)
		assert.Equal(t, c.want, rr.Code, "%v", c.err)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestFieldErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	Handle(rr, req, &journal.FieldError{Field: "title", Reason: "required"})

	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "/books", p.Instance)
	assert.Equal(t, "rid-1", p.RequestID)
	require.Len(t, p.FieldErrors, 1)
	assert.Equal(t, "title", p.FieldErrors[0].Field)
}

func TestFromPG_UniqueEmail(t *testing.T) {
	p, ok := FromPG(fmt.Errorf("create member: %w", &pgconn.PgError{Code: "23505", ConstraintName: "members_email_key"}))
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, p.Status)
	require.Len(t, p.FieldErrors, 1)
	assert.Equal(t, "email", p.FieldErrors[0].Field)

	_, ok = FromPG(errors.New("plain"))
	assert.False(t, ok)
}

func TestFromPG_IntegrityClasses(t *testing.T) {
	cases := map[string]struct {
		pg          *pgconn.PgError
		status      int
		field, code string
	}{
		"fk":        {&pgconn.PgError{Code: "23503", ConstraintName: "memos_book_id_fkey"}, http.StatusConflict, "book_id", "fk"},
		"check":     {&pgconn.PgError{Code: "23514", ConstraintName: "books_status_check"}, http.StatusUnprocessableEntity, "book_status", "check"},
		"not null":  {&pgconn.PgError{Code: "23502", ColumnName: "title"}, http.StatusBadRequest, "title", "not_null"},
		"anonymous": {&pgconn.PgError{Code: "23505"}, http.StatusConflict, "resource", "unique"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			p, ok := FromPG(c.pg)
			require.True(t, ok)
			assert.Equal(t, c.status, p.Status)
			require.Len(t, p.FieldErrors, 1)
			assert.Equal(t, c.field, p.FieldErrors[0].Field)
			assert.Equal(t, c.code, p.FieldErrors[0].Code)
		})
	}
}

func TestFromPG_OtherCodesAreOpaque(t *testing.T) {
	p, ok := FromPG(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Empty(t, p.Detail)
	assert.Empty(t, p.FieldErrors)
}
