// Package credential issues and decodes the scannable check-in credential
// that binds a user to an event. The payload is a signed compact JWT; the
// caller treats it as an opaque string.
package credential

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixLandlord/eventRSVP/internal/clock"
	"github.com/felixLandlord/eventRSVP/internal/domain"
)

const purposeCheckIn = "rsvp_checkin"

// Claims is the decoded content of a check-in credential.
type Claims struct {
	UserID  string
	EventID string
}

// Issuer issues and decodes check-in credentials.
type Issuer interface {
	Issue(userID, eventID string) (string, error)
	Decode(payload string) (Claims, error)
}

type tokenClaims struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTIssuer signs credentials with an HMAC secret.
type JWTIssuer struct {
	secret []byte
	clock  clock.Clock
	ttl    time.Duration
}

func NewJWTIssuer(secret []byte, clk clock.Clock, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: secret, clock: clk, ttl: ttl}
}

func (i *JWTIssuer) Issue(userID, eventID string) (string, error) {
	if userID == "" || eventID == "" {
		return "", domain.ErrInvalidID
	}

	now := i.clock.Now()
	claims := tokenClaims{
		UserID:  userID,
		EventID: eventID,
		Purpose: purposeCheckIn,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (i *JWTIssuer) Decode(payload string) (Claims, error) {
	if payload == "" {
		return Claims{}, domain.ErrInvalidCredential
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(payload, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil || !token.Valid {
		return Claims{}, domain.ErrInvalidCredential
	}
	if claims.Purpose != purposeCheckIn || claims.UserID == "" || claims.EventID == "" {
		return Claims{}, domain.ErrInvalidCredential
	}

	return Claims{UserID: claims.UserID, EventID: claims.EventID}, nil
}
