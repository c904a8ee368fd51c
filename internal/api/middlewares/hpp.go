package middlewares

import (
	"net/http"
	"slices"
)

// HPP guards against HTTP parameter pollution on the query string: repeated
// parameters collapse to their first value and unknown ones are dropped.
func HPP(whitelist ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				filterQueryParams(r, whitelist)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func filterQueryParams(r *http.Request, whitelist []string) {
	query := r.URL.Query()
	for k, v := range query {
		if !slices.Contains(whitelist, k) {
			query.Del(k)
			continue
		}
		if len(v) > 1 {
			query.Set(k, v[0])
		}
	}
	r.URL.RawQuery = query.Encode()
}

// QueryParams lists every query parameter the API reads.
var QueryParams = []string{"page", "size", "bookStatus"}
