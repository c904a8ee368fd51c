package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/sirupsen/logrus"
)

// RequireAuth resolves the Bearer credential to a member id and injects it
// into the request context. Every failure is a plain 401.
func RequireAuth(resolver journal.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearer(r.Header.Get("Authorization"))
			if err != nil {
				apperr.Handle(w, r, journal.ErrNotAuthenticated)
				return
			}
			memberID, err := resolver.Resolve(r.Context(), tokenStr)
			if err != nil {
				if !errors.Is(err, journal.ErrNotAuthenticated) {
					logging.FromContext(r.Context()).WithError(err).Warn("resolve credential")
				}
				apperr.Handle(w, r, journal.ErrNotAuthenticated)
				return
			}
			ctx := WithMemberID(r.Context(), memberID)
			ctx = logging.WithFields(ctx, logrus.Fields{"member_id": memberID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(h string) (string, error) {
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", errors.New("no bearer")
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	if tok == "" {
		return "", errors.New("empty bearer")
	}
	return tok, nil
}
