package apperr

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// constraintField names the request field behind each schema constraint.
var constraintField = map[string]string{
	"members_email_key":     "email",
	"books_member_id_fkey":  "member_id",
	"books_status_check":    "book_status",
	"books_item_page_check": "item_page",
	"memos_book_id_fkey":    "book_id",
	"memos_member_id_fkey":  "member_id",
	"memos_kind_check":      "memo_type",
	"memos_book_page_check": "memo_book_page",
}

type violation struct {
	status  int
	code    string
	message string
}

// integrity covers the SQLSTATE class 23 errors the stores can raise.
var integrity = map[string]violation{
	"23505": {http.StatusConflict, "unique", "value already exists"},
	"23503": {http.StatusConflict, "fk", "referenced record does not exist or is still in use"},
	"23514": {http.StatusUnprocessableEntity, "check", "constraint failed"},
	"23502": {http.StatusBadRequest, "not_null", "required field is missing"},
}

// FromPG maps a wrapped *pgconn.PgError to a Problem. Anything outside the
// integrity classes becomes an opaque 500.
func FromPG(err error) (Problem, bool) {
	var pg *pgconn.PgError
	if !errors.As(err, &pg) {
		return Problem{}, false
	}

	v, ok := integrity[pg.Code]
	if !ok {
		return Problem{Title: "Database error", Status: http.StatusInternalServerError}, true
	}

	field := constraintField[pg.ConstraintName]
	if field == "" {
		field = pg.ColumnName
	}
	if field == "" {
		field = "resource"
	}
	return Problem{
		Title:       http.StatusText(v.status),
		Status:      v.status,
		FieldErrors: []FieldError{{Field: field, Code: v.code, Message: v.message}},
	}, true
}
