package auth

import (
	"testing"
	"time"

	"github.com/felixLandlord/eventRSVP/internal/clock"
)

func TestHS256Verifier(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	secret := []byte("access-secret")
	verifier := NewHS256Verifier(secret, clock.NewFixed(now))

	t.Run("valid token resolves user id", func(t *testing.T) {
		token, err := IssueAccessToken(secret, "user-42", now, time.Hour)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if userID != "user-42" {
			t.Fatalf("expected user-42, got %s", userID)
		}
	})

	t.Run("empty token rejected", func(t *testing.T) {
		if _, err := verifier.Verify(""); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if _, err := verifier.Verify("garbage"); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := IssueAccessToken(secret, "user-42", now.Add(-2*time.Hour), time.Hour)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := verifier.Verify(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, err := IssueAccessToken([]byte("other"), "user-42", now, time.Hour)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := verifier.Verify(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
