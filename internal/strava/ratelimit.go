package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava enforces 100 requests per 15 minutes and 1000 per day, reported
// back as paired "short,daily" values in X-RateLimit-* headers.

type limitWindow struct {
	limit    int
	used     int
	resetsAt time.Time
	span     time.Duration
}

func (w *limitWindow) rollIfExpired(now time.Time) {
	if now.After(w.resetsAt) {
		w.used = 0
		w.resetsAt = w.nextReset(now)
	}
}

func (w *limitWindow) nextReset(now time.Time) time.Time {
	if w.span == 24*time.Hour {
		return now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return now.Add(w.span)
}

// RateLimiter paces requests against both Strava windows and keeps a small
// gap between consecutive calls.
type RateLimiter struct {
	mu sync.Mutex

	short limitWindow
	daily limitWindow

	minGap   time.Duration
	lastCall time.Time
}

// NewRateLimiter creates a limiter seeded with Strava's published limits.
func NewRateLimiter() *RateLimiter {
	now := time.Now()
	r := &RateLimiter{
		short:  limitWindow{limit: 100, span: 15 * time.Minute},
		daily:  limitWindow{limit: 1000, span: 24 * time.Hour},
		minGap: 150 * time.Millisecond,
	}
	r.short.resetsAt = r.short.nextReset(now)
	r.daily.resetsAt = r.daily.nextReset(now)
	return r
}

// Wait blocks until the next request fits inside both windows. It returns
// early with the context's error if the context is cancelled while waiting.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.short.rollIfExpired(now)
	r.daily.rollIfExpired(now)

	for _, w := range []*limitWindow{&r.short, &r.daily} {
		if w.used >= w.limit {
			if err := r.sleepLocked(ctx, time.Until(w.resetsAt)); err != nil {
				return err
			}
			w.used = 0
			w.resetsAt = w.nextReset(time.Now())
		}
	}

	if gap := r.minGap - time.Since(r.lastCall); gap > 0 {
		if err := r.sleepLocked(ctx, gap); err != nil {
			return err
		}
	}

	r.short.used++
	r.daily.used++
	r.lastCall = time.Now()
	return nil
}

// sleepLocked releases the mutex for the duration of the sleep so header
// updates from in-flight responses are not blocked.
func (r *RateLimiter) sleepLocked(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders syncs usage and limits from a Strava API response.
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.used = short
		r.daily.used = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit = short
		r.daily.limit = daily
	}
}

// parsePair splits a "short,daily" header value into its two counters.
func parsePair(v string) (short, daily int, ok bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	short, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	daily, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return short, daily, true
}

// Status reports how many requests remain in each window.
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.used, r.daily.limit - r.daily.used
}
