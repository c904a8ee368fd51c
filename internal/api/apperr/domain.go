package apperr

import (
	"errors"
	"net/http"

	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/5w1tchy/reading-journal/internal/metrics"
)

// FromDomain maps journal and request errors to a Problem. Foreign and
// missing resources share one 404 so callers cannot probe for existence.
func FromDomain(err error) (Problem, bool) {
	var fe *journal.FieldError
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &fe):
		return Problem{
			Status:      http.StatusBadRequest,
			Title:       "Bad Request",
			FieldErrors: []FieldError{{Field: fe.Field, Code: "invalid", Message: fe.Reason}},
		}, true
	case errors.Is(err, journal.ErrInvalidStatus):
		return Problem{
			Status: http.StatusBadRequest,
			Title:  "Bad Request",
			FieldErrors: []FieldError{{
				Field:   "book_status",
				Code:    "invalid",
				Message: "must be one of WANT_TO_READ, READING, FINISHED",
			}},
		}, true
	case errors.Is(err, journal.ErrInvalidInput):
		return Problem{Status: http.StatusBadRequest, Title: "Bad Request"}, true
	case errors.Is(err, httpx.ErrBadJSON):
		return Problem{Status: http.StatusBadRequest, Title: "Bad Request", Detail: "invalid JSON body"}, true
	case errors.As(err, &tooBig):
		return Problem{Status: http.StatusRequestEntityTooLarge, Title: "Payload Too Large"}, true
	case errors.Is(err, journal.ErrNotAuthenticated):
		return Problem{Status: http.StatusUnauthorized, Title: "Unauthorized"}, true
	case errors.Is(err, journal.ErrResourceNotOwned), errors.Is(err, journal.ErrResourceNotFound):
		return Problem{Status: http.StatusNotFound, Title: "Not Found"}, true
	}
	return Problem{}, false
}

// Handle writes the Problem for err. Anything unmapped is logged and hidden
// behind a 500.
func Handle(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, journal.ErrResourceNotOwned) {
		metrics.OwnershipDenials.Inc()
	}
	if p, ok := FromDomain(err); ok {
		Write(w, r, p)
		return
	}
	log := logging.FromContext(r.Context()).WithError(err)
	if p, ok := FromPG(err); ok {
		if p.Status >= http.StatusInternalServerError {
			log.Error("database error")
		} else {
			log.Warn("database constraint")
		}
		Write(w, r, p)
		return
	}
	log.Error("unhandled error")
	Write(w, r, Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"})
}
