package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/redis/go-redis/v9"
)

// LoginRateLimit counts attempts per client IP in a fixed window.
func LoginRateLimit(rdb *redis.Client, max int, win time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" || rdb == nil { // fail-open if no IP/Redis
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "rl:login:" + ip

			// INCR and set TTL if new
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logging.FromContext(ctx).WithError(err).Warn("login limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, win).Err()
			}
			if n > int64(max) {
				w.Header().Set("Retry-After", strconv.Itoa(int(win.Seconds())))
				apperr.WriteStatus(w, r, http.StatusTooManyRequests, "Too Many Requests", "too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
