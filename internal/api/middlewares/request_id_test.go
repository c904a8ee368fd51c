package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/5w1tchy/reading-journal/internal/api/middlewares"
)

func TestRequestID_GeneratesID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	mw.RequestID(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if seen == "" {
		t.Error("Expected request ID on the request")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("Expected response header %q, got %q", seen, got)
	}
}

func TestRequestID_UsesProvidedID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "custom-request-id")
	rec := httptest.NewRecorder()
	mw.RequestID(handler).ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "custom-request-id" {
		t.Errorf("Expected custom-request-id, got %s", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_RejectsInvalidID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "invalid@#$%id")
	rec := httptest.NewRecorder()
	mw.RequestID(handler).ServeHTTP(rec, req)

	rid := rec.Header().Get("X-Request-ID")
	if rid == "invalid@#$%id" {
		t.Error("Should have rejected invalid request ID")
	}
	if rid == "" {
		t.Error("Should have generated new request ID")
	}
}
