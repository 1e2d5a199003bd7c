package notification

import (
	"sync"
	"time"
)

// slidingWindowLimiter enforces independent per-minute and per-hour caps
// per (recipient, channel) pair. This is deliberately narrower than the
// request-level internal/ratelimit guard (C9): it only throttles
// outbound delivery volume, not inbound API traffic.
type slidingWindowLimiter struct {
	perMinute int
	perHour   int

	mu     sync.Mutex
	events map[string][]time.Time
}

func newSlidingWindowLimiter(perMinute, perHour int) *slidingWindowLimiter {
	return &slidingWindowLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		events:    make(map[string][]time.Time),
	}
}

// Allow records an attempt at `now` for key and reports whether it falls
// within both windows. Stale entries beyond the hour window are pruned
// on every call so the map never grows unbounded.
func (l *slidingWindowLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	hourCutoff := now.Add(-time.Hour)
	kept := l.events[key][:0]
	for _, ts := range l.events[key] {
		if ts.After(hourCutoff) {
			kept = append(kept, ts)
		}
	}

	minuteCutoff := now.Add(-time.Minute)
	minuteCount, hourCount := 0, len(kept)
	for _, ts := range kept {
		if ts.After(minuteCutoff) {
			minuteCount++
		}
	}

	if l.perMinute > 0 && minuteCount >= l.perMinute {
		l.events[key] = kept
		return false
	}
	if l.perHour > 0 && hourCount >= l.perHour {
		l.events[key] = kept
		return false
	}

	l.events[key] = append(kept, now)
	return true
}
