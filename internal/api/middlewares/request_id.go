package middlewares

import (
	"net/http"
	"regexp"

	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ridRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if !ridRe.MatchString(rid) {
			rid = genRID()
		}
		r = r.WithContext(logging.WithFields(r.Context(), logrus.Fields{"request_id": rid}))
		r.Header.Set("X-Request-ID", rid)
		w.Header().Set("X-Request-ID", rid)

		next.ServeHTTP(w, r)
	})
}

// v7 ids sort by creation time, which helps when grepping logs.
func genRID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
