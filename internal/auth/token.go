// Package auth is the boundary to the credential/token subsystem: it only
// verifies bearer access tokens down to a user id. Issuing, refresh and the
// rest of the auth flows live outside this service.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixLandlord/eventRSVP/internal/clock"
)

var ErrInvalidToken = errors.New("invalid access token")

// Verifier resolves a bearer access token to the authenticated user id.
type Verifier interface {
	Verify(token string) (userID string, err error)
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// HS256Verifier validates HMAC-signed access tokens with the user id in the
// subject claim.
type HS256Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewHS256Verifier(secret []byte, clk clock.Clock) *HS256Verifier {
	return &HS256Verifier{secret: secret, clock: clk}
}

func (v *HS256Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.clock.Now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueAccessToken signs a short-lived access token for userID. Used by
// tests and local tooling; production tokens come from the auth service.
func IssueAccessToken(secret []byte, userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
