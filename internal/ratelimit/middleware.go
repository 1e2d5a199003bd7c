package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// userIDFunc extracts the authenticated user id from a request, if any,
// so the limiter can key counters per (bucket, ip, user) the way §4.9
// describes. Returns "" for unauthenticated requests.
type userIDFunc func(r *http.Request) string

// Middleware wraps a Limiter as chi-compatible HTTP middleware: the
// blocked-IP/scanner-UA guard runs first, then the per-bucket fixed-window
// counter, then (on success) a slow-request timer that only logs.
type Middleware struct {
	limiter *Limiter
	userID  userIDFunc
	logger  *zap.Logger
	nowFn   func() time.Time
}

// NewMiddleware builds a Middleware over limiter. userID may be nil, in
// which case requests are never keyed by user.
func NewMiddleware(limiter *Limiter, userID userIDFunc, logger *zap.Logger) *Middleware {
	if userID == nil {
		userID = func(*http.Request) string { return "" }
	}
	return &Middleware{
		limiter: limiter,
		userID:  userID,
		logger:  logger.With(zap.String("component", "ratelimit-middleware")),
		nowFn:   time.Now,
	}
}

// Handler returns the http.Handler middleware for mounting ahead of
// routing, matching the teacher's `func(next http.Handler) http.Handler`
// middleware shape.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		userAgent := r.UserAgent()

		if m.limiter.IsBlocked(ip) {
			m.logger.Warn("blocked ip attempted access", zap.String("ip", ip), zap.String("path", r.URL.Path))
			writeDenied(w)
			return
		}

		if IsScannerUserAgent(userAgent) {
			m.logger.Warn("scanner user agent blocked", zap.String("ip", ip), zap.String("user_agent", userAgent))
			m.limiter.BlockIP(ip, scannerBlockDuration)
			writeDenied(w)
			return
		}

		bucket := BucketForPath(r.URL.Path)
		result := m.limiter.Check(bucket, ip, m.userID(r))

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

		if !result.Allowed {
			writeRateLimited(w, result.RetryAfter)
			return
		}

		start := m.nowFn()
		next.ServeHTTP(w, r)
		duration := m.nowFn().Sub(start)
		if duration > slowRequestThreshold {
			m.logger.Warn("slow request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("ip", ip),
				zap.Duration("duration", duration),
			)
		}
	})
}

func writeDenied(w http.ResponseWriter) {
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("Access Denied"))
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       "rate_limited",
		"detail":      "Too many requests",
		"retry_after": int(retryAfter.Seconds()),
	})
}
