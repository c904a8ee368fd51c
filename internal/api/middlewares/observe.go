package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/5w1tchy/reading-journal/internal/logging"
	"github.com/5w1tchy/reading-journal/internal/metrics"
	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
	status      int
	bytes       int
}

func (w *statusWriter) stamp() {
	if !w.wroteHeader {
		w.Header().Set("X-Response-Time", time.Since(w.start).String())
		w.wroteHeader = true
	}
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.stamp()
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Observe stamps X-Response-Time, records request metrics and writes one
// access log line per request. It must wrap the mux so the matched route
// pattern is known once the handler returns.
func Observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(sw.start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		entry := logging.FromContext(r.Context()).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      sw.status,
			"bytes":       sw.bytes,
			"duration_ms": elapsed.Milliseconds(),
			"remote":      clientIP(r),
		})
		switch {
		case sw.status >= 500:
			entry.Error("request")
		case sw.status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}
