package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// --------- Key helpers ---------

type KeyFunc func(r *http.Request) string

// PerIPKey buckets anonymous traffic by client address.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For may have a list: client, proxy1, proxy2...
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// PerMemberKey buckets authenticated traffic by member, falling back to the
// client address when the request carries no member.
func PerMemberKey(prefix string) KeyFunc {
	ip := PerIPKey(prefix)
	return func(r *http.Request) string {
		if id, ok := MemberIDFrom(r.Context()); ok {
			return prefix + ":m:" + id
		}
		return ip(r)
	}
}

// --------- Token Bucket (Redis + Lua) ---------

// tokenBucket refills KEYS[1] at ARGV[1] tokens/s up to ARGV[2] and takes one
// token. Replies {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local rate, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local now = redis.call('TIME')
now = tonumber(now[1]) * 1000 + math.floor(tonumber(now[2]) / 1000)

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(state[1]) or cap, tonumber(state[2]) or now
if now > ts then
  tokens = math.min(cap, tokens + (now - ts) * rate / 1000.0)
end

local allowed, wait = 0, 0
if tokens >= 1 then
  tokens, allowed = tokens - 1, 1
else
  wait = math.ceil((1 - tokens) * 1000.0 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap * 1000.0 / rate))
return {allowed, tostring(math.floor(tokens)), wait}
`)

type RedisTokenBucket struct {
	rdb   *redis.Client
	keyFn KeyFunc
	rate  string
	burst int
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	return &RedisTokenBucket{
		rdb:   rdb,
		keyFn: keyFn,
		rate:  strconv.FormatFloat(ratePerSecond, 'f', -1, 64),
		burst: burst,
	}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)
		ctx := r.Context()

		res, err := tokenBucket.Run(ctx, tb.rdb, []string{key}, tb.rate, tb.burst).Slice()

		if err != nil || len(res) != 3 {
			logging.FromContext(ctx).WithError(err).Warn("token bucket unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Policy", "token-bucket")
		h.Set("X-RateLimit-Limit", strconv.Itoa(tb.burst))
		h.Set("X-RateLimit-Remaining", toString(res[1]))

		if toInt64(res[0]) != 1 {
			sec := max((toInt64(res[2])+999)/1000, 1)
			h.Set("Retry-After", strconv.FormatInt(sec, 10))

			logging.FromContext(ctx).WithFields(logrus.Fields{
				"key":         key,
				"retry_after": sec,
			}).Info("rate limited")

			apperr.WriteStatus(w, r, http.StatusTooManyRequests, "Too Many Requests", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// --------- utils ---------

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return "0"
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		i, _ := strconv.ParseInt(t, 10, 64)
		return i
	case []byte:
		i, _ := strconv.ParseInt(string(t), 10, 64)
		return i
	case float64:
		return int64(t)
	default:
		return 0
	}
}
