package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/ratelimit"
)

func newLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	return ratelimit.NewLimiter(map[ratelimit.Bucket]ratelimit.Limit{
		ratelimit.BucketAPI:     {Requests: 2, Window: time.Minute},
		ratelimit.BucketAuth:    {Requests: 1, Window: time.Minute},
		ratelimit.BucketAdmin:   {Requests: 2, Window: time.Minute},
		ratelimit.BucketDefault: {Requests: 2, Window: time.Minute},
	}, zap.NewNop())
}

func TestCheck_AllowsExactlyAtLimitThenRejects(t *testing.T) {
	l := newLimiter(t)
	r1 := l.Check(ratelimit.BucketAPI, "1.2.3.4", "")
	require.True(t, r1.Allowed)
	r2 := l.Check(ratelimit.BucketAPI, "1.2.3.4", "")
	require.True(t, r2.Allowed)
	r3 := l.Check(ratelimit.BucketAPI, "1.2.3.4", "")
	require.False(t, r3.Allowed)
	require.Greater(t, r3.RetryAfter, time.Duration(0))
}

func TestCheck_KeysAreIndependentAcrossIPsAndBuckets(t *testing.T) {
	l := newLimiter(t)
	require.True(t, l.Check(ratelimit.BucketAuth, "1.1.1.1", "").Allowed)
	require.False(t, l.Check(ratelimit.BucketAuth, "1.1.1.1", "").Allowed)

	require.True(t, l.Check(ratelimit.BucketAuth, "2.2.2.2", "").Allowed)
	require.True(t, l.Check(ratelimit.BucketAPI, "1.1.1.1", "").Allowed)
}

func TestBucketForPath(t *testing.T) {
	require.Equal(t, ratelimit.BucketAuth, ratelimit.BucketForPath("/v1/auth/login"))
	require.Equal(t, ratelimit.BucketAdmin, ratelimit.BucketForPath("/admin/stats"))
	require.Equal(t, ratelimit.BucketAPI, ratelimit.BucketForPath("/v1/contracts"))
	require.Equal(t, ratelimit.BucketDefault, ratelimit.BucketForPath("/health"))
}

func TestBlockIP_ExpiresAfterTTL(t *testing.T) {
	l := newLimiter(t)
	l.BlockIP("9.9.9.9", time.Millisecond)
	require.True(t, l.IsBlocked("9.9.9.9"))
	time.Sleep(5 * time.Millisecond)
	require.False(t, l.IsBlocked("9.9.9.9"))
}

func TestIsScannerUserAgent(t *testing.T) {
	require.True(t, ratelimit.IsScannerUserAgent("sqlmap/1.6"))
	require.True(t, ratelimit.IsScannerUserAgent("Mozilla/5.0 (compatible; Nikto/2.5)"))
	require.False(t, ratelimit.IsScannerUserAgent("Mozilla/5.0 (Macintosh)"))
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:12345"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "203.0.113.9", ratelimit.ClientIP(r))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.RemoteAddr = "10.0.0.5:12345"
	require.Equal(t, "10.0.0.5", ratelimit.ClientIP(r2))
}

func TestMiddleware_BlocksScannerUserAgentAndRemembersIP(t *testing.T) {
	l := newLimiter(t)
	mw := ratelimit.NewMiddleware(l, nil, zap.NewNop())
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/contracts", nil)
	req.RemoteAddr = "5.5.5.5:1111"
	req.Header.Set("User-Agent", "sqlmap/1.6")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/v1/contracts", nil)
	req2.RemoteAddr = "5.5.5.5:2222"
	req2.Header.Set("User-Agent", "curl/8.0")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusForbidden, rec2.Code)
}

func TestMiddleware_RejectsWithRetryAfterOnceLimitExceeded(t *testing.T) {
	l := newLimiter(t)
	mw := ratelimit.NewMiddleware(l, nil, zap.NewNop())
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/contracts", nil)
		req.RemoteAddr = "6.6.6.6:1"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/contracts", nil)
	req.RemoteAddr = "6.6.6.6:1"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}
