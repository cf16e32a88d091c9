package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/felixLandlord/eventRSVP/internal/auth"
	"github.com/felixLandlord/eventRSVP/internal/ratelimit"
)

// RequestLogger logs basic request details and latency.
func RequestLogger(next http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// authenticate resolves the Authorization bearer token to a user id. On
// failure it writes a 401 and reports false.
func authenticate(verifier auth.Verifier, w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "missing bearer token")
		return "", false
	}

	userID, err := verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "invalid access token")
		return "", false
	}
	return userID, true
}

// allowRate checks the per-caller budget for op. A nil limiter disables
// limiting. On rejection it writes a 429 and reports false.
func allowRate(limiter *ratelimit.Limiter, op string, w http.ResponseWriter, r *http.Request) bool {
	if limiter == nil {
		return true
	}
	if limiter.Allow(op, clientIP(r)) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
	return false
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
