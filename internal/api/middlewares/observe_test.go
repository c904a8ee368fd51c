package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve_StampsResponseTime(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test response"))
	})

	rec := httptest.NewRecorder()
	mw.Observe(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rec.Header().Get("X-Response-Time") == "" {
		t.Error("Expected X-Response-Time header when using Write")
	}
}

func TestObserve_CountsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "GET /books/{id}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	mw.Observe(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/abc", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("Expected 418, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("Expected counter to grow by 1, grew by %v", got)
	}
}
