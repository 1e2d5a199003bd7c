// Package ratelimit implements C9: per-endpoint fixed-window request
// counters (each counter resets when its window expires; there is no
// sliding timestamp log), a TTL-backed blocked-IP set, and a
// scanner-user-agent filter, offered as chi-compatible middleware (§4.9).
// internal/api does not mount Middleware; it calls Limiter.Check directly.
package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
)

// Bucket names the endpoint classes §4.9 assigns distinct limits to.
type Bucket string

const (
	BucketAPI     Bucket = "api"
	BucketAuth    Bucket = "auth"
	BucketAdmin   Bucket = "admin"
	BucketDefault Bucket = "default"
)

// Limit is a bucket's request allowance over a fixed window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits mirrors §4.9's per-bucket table.
var DefaultLimits = map[Bucket]Limit{
	BucketAPI:     {Requests: 1000, Window: time.Hour},
	BucketAuth:    {Requests: 100, Window: 15 * time.Minute},
	BucketAdmin:   {Requests: 1000, Window: time.Hour},
	BucketDefault: {Requests: 100, Window: time.Hour},
}

// slowRequestThreshold is the duration above which a completed request is
// logged as suspiciously slow but never blocked (§4.9).
const slowRequestThreshold = 2 * time.Second

// scannerUserAgents are substrings that, found anywhere in a request's
// User-Agent, mark it as automated vulnerability-scanning traffic.
var scannerUserAgents = []string{"sqlmap", "nikto", "nmap", "masscan", "zap"}

// scannerBlockDuration is how long an IP stays blocked after a scanner UA
// hit, per §4.9.
const scannerBlockDuration = time.Hour

type counterEntry struct {
	count     int
	expiresAt time.Time
}

// Limiter tracks one counter per (bucket, ip[, user]) key and a
// TTL-evicted set of blocked IPs. All state is in-process; multiple API
// replicas each enforce their own view, which §4.9 accepts as eventually
// consistent across workers.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
	blocked  map[string]time.Time

	limits map[Bucket]Limit
	clock  func() time.Time
	logger *zap.Logger
}

// NewLimiter builds a Limiter with the given per-bucket limits. A nil or
// empty limits map falls back to DefaultLimits.
func NewLimiter(limits map[Bucket]Limit, logger *zap.Logger) *Limiter {
	if len(limits) == 0 {
		limits = DefaultLimits
	}
	return &Limiter{
		counters: make(map[string]*counterEntry),
		blocked:  make(map[string]time.Time),
		limits:   limits,
		clock:    time.Now,
		logger:   logger.With(zap.String("component", "ratelimit")),
	}
}

// Result is the outcome of a single Check call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func counterKey(bucket Bucket, ip, userID string) string {
	if userID == "" {
		return fmt.Sprintf("%s:%s", bucket, ip)
	}
	return fmt.Sprintf("%s:%s:%s", bucket, ip, userID)
}

// Check increments the counter for (bucket, ip, userID) and reports
// whether this request is within the bucket's limit. A request that
// lands exactly on the limit still succeeds; the next one fails, per
// §4.9's boundary rule.
func (l *Limiter) Check(bucket Bucket, ip, userID string) Result {
	limit, ok := l.limits[bucket]
	if !ok {
		limit = DefaultLimits[BucketDefault]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	key := counterKey(bucket, ip, userID)
	entry, exists := l.counters[key]
	if !exists || now.After(entry.expiresAt) {
		entry = &counterEntry{count: 0, expiresAt: now.Add(limit.Window)}
		l.counters[key] = entry
	}

	if entry.count >= limit.Requests {
		l.logger.Warn("rate limit exceeded",
			zap.String("bucket", string(bucket)),
			zap.String("ip", ip),
			zap.Int("count", entry.count),
			zap.Int("limit", limit.Requests),
		)
		return Result{
			Allowed:    false,
			Limit:      limit.Requests,
			Remaining:  0,
			RetryAfter: entry.expiresAt.Sub(now),
		}
	}

	entry.count++
	return Result{
		Allowed:    true,
		Limit:      limit.Requests,
		Remaining:  limit.Requests - entry.count,
		RetryAfter: 0,
	}
}

// LimitsFromConfig converts a config.RateLimitConfig into the bucket→limit
// map NewLimiter expects.
func LimitsFromConfig(cfg *config.RateLimitConfig) map[Bucket]Limit {
	return map[Bucket]Limit{
		BucketAPI:     {Requests: cfg.APIRequests, Window: cfg.APIWindow},
		BucketAuth:    {Requests: cfg.AuthRequests, Window: cfg.AuthWindow},
		BucketAdmin:   {Requests: cfg.AdminRequests, Window: cfg.AdminWindow},
		BucketDefault: {Requests: cfg.DefaultRequests, Window: cfg.DefaultWindow},
	}
}

// BucketForPath classifies a request path into §4.9's endpoint buckets.
func BucketForPath(path string) Bucket {
	switch {
	case strings.HasPrefix(path, "/v1/auth/") || strings.HasPrefix(path, "/api/v1/auth/"):
		return BucketAuth
	case strings.HasPrefix(path, "/admin/"):
		return BucketAdmin
	case strings.HasPrefix(path, "/v1/") || strings.HasPrefix(path, "/api/"):
		return BucketAPI
	default:
		return BucketDefault
	}
}

// IsBlocked reports whether ip is currently in the blocked set, evicting
// it first if its TTL has elapsed.
func (l *Limiter) IsBlocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.blocked[ip]
	if !ok {
		return false
	}
	if l.clock().After(expiresAt) {
		delete(l.blocked, ip)
		return false
	}
	return true
}

// BlockIP adds ip to the blocked set for duration.
func (l *Limiter) BlockIP(ip string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked[ip] = l.clock().Add(duration)
	l.logger.Warn("ip blocked", zap.String("ip", ip), zap.Duration("duration", duration))
}

// IsScannerUserAgent reports whether userAgent matches a known
// vulnerability-scanner substring.
func IsScannerUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, blocked := range scannerUserAgents {
		if strings.Contains(ua, blocked) {
			return true
		}
	}
	return false
}

// ClientIP extracts the caller's address the same way the teacher's HTTP
// middleware does: trust X-Forwarded-For's first hop, else RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
