package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != "GET" {
		t.Fatalf("expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/events" {
		t.Fatalf("expected path /events, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Fatalf("expected status 201, got %v", fields["status"])
	}
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Fatalf("expected status 200, got %v", entries[0].ContextMap()["status"])
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	secret := []byte("test-secret")
	verifier := auth.NewHS256Verifier(secret, clock.NewFixed(now))

	token, err := auth.IssueAccessToken(secret, "user-1", now, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rsvps", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		userID, ok := authenticate(verifier, rec, req)
		if !ok {
			t.Fatalf("expected authentication to succeed, got %d", rec.Code)
		}
		if userID != "user-1" {
			t.Fatalf("expected user-1, got %q", userID)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rsvps", nil)
		rec := httptest.NewRecorder()

		if _, ok := authenticate(verifier, rec, req); ok {
			t.Fatal("expected authentication to fail")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rsvps", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		if _, ok := authenticate(verifier, rec, req); ok {
			t.Fatal("expected authentication to fail")
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAllowRate(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.Budgets{"create_rsvp": 2})

	req := httptest.NewRequest(http.MethodPost, "/rsvps", nil)
	req.RemoteAddr = "203.0.113.7:51234"

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		if !allowRate(limiter, "create_rsvp", rec, req) {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}

	rec := httptest.NewRecorder()
	if allowRate(limiter, "create_rsvp", rec, req) {
		t.Fatal("expected third request to be limited")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestAllowRate_NilLimiterAllowsEverything(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/rsvps", nil)
	rec := httptest.NewRecorder()
	if !allowRate(nil, "create_rsvp", rec, req) {
		t.Fatal("nil limiter must not reject")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.RemoteAddr = "192.0.2.10:40000"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Fatalf("expected remote host, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
