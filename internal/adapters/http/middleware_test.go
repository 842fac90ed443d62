package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddlewareKeepsSafeIDs(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "trace-42.a:b")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if seen != "trace-42.a:b" || res.Header().Get(requestIDHeader) != "trace-42.a:b" {
		t.Fatalf("expected caller id to propagate, got ctx=%q header=%q", seen, res.Header().Get(requestIDHeader))
	}

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(requestIDHeader, bad)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if seen == bad || seen == "" {
			t.Fatalf("expected generated id for %q, got %q", bad, seen)
		}
	}
}

func TestRecoverMiddlewareWritesJSON500(t *testing.T) {
	handler := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/search", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if got := decodeError(t, res); got.Code != "internal" || strings.Contains(got.Error, "nil map") {
		t.Fatalf("unexpected panic response: %+v", got)
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _ = rec.Write([]byte("ok"))
	rec.WriteHeader(http.StatusTeapot)
	if rec.statusCode != http.StatusOK || rec.bytesWritten != 2 {
		t.Fatalf("unexpected recorder state: %+v", rec)
	}
}
