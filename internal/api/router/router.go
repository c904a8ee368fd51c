package router

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/reading-journal/internal/api/handlers/books"
	"github.com/5w1tchy/reading-journal/internal/api/handlers/memos"
	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	mw "github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/auth"
	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/metrics"
)

// uploadOverhead is multipart framing allowed on top of the image size.
const uploadOverhead = 64 << 10

type Deps struct {
	Config   config.Config
	RDB      *redis.Client // nil disables rate limiting
	Resolver journal.IdentityResolver
	Auth     *auth.Handler
	Books    *books.Handler
	Memos    *memos.Handler
}

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func pass(next http.Handler) http.Handler { return next }

func Router(d Deps) http.Handler {
	mux := http.NewServeMux()
	limits := d.Config.Limits

	jsonBody := mw.BodySizeLimit(limits.MaxBodySize)
	imageBody := mw.BodySizeLimit(limits.MaxImageBytes + uploadOverhead)

	throttle, memberBucket := pass, pass
	if d.RDB != nil {
		throttle = mw.LoginRateLimit(d.RDB, limits.LoginMaxAttempts, limits.LoginWindow)
		memberBucket = mw.NewRedisTokenBucket(d.RDB, limits.RateLimitRPS, limits.RateLimitBurst, mw.PerMemberKey("tb")).Middleware
	}
	requireAuth := mw.RequireAuth(d.Resolver)
	authed := func(next http.Handler) http.Handler { return requireAuth(memberBucket(next)) }

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	d.Auth.Routes(mux, authed, jsonBody, throttle)
	d.Books.Routes(mux, authed, jsonBody)
	d.Memos.Routes(mux, authed, jsonBody, imageBody)

	var ipBucket func(http.Handler) http.Handler = pass
	if d.RDB != nil {
		ipBucket = mw.NewRedisTokenBucket(d.RDB, limits.RateLimitRPS*4, limits.RateLimitBurst*4, mw.PerIPKey("tb:ip")).Middleware
	}
	compression := pass
	if d.Config.HTTP.Gzip {
		compression = mw.Compression
	}

	return Chain(mux,
		mw.RequestID,
		mw.Recovery,
		mw.SecurityHeaders(d.Config.HTTP.StrictSecurity),
		mw.Cors(d.Config.HTTP.AllowedOrigins),
		compression,
		mw.HPP(mw.QueryParams...),
		ipBucket,
		mw.Observe,
	)
}
