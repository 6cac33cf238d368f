package gamenight

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/WelcomerTeam/Gamenight/pkg/syncmap"
)

const (
	HeaderRateLimitRemaining  = "X-RateLimit-Remaining"
	HeaderRateLimitResetAfter = "X-RateLimit-Reset-After"
)

// bucket holds the last known limits for a single route classification.
type bucket struct {
	mu sync.Mutex

	resetAt      time.Time
	remaining    int64
	hasRemaining bool
}

func (b *bucket) delay(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasRemaining || b.remaining > 0 || b.resetAt.IsZero() {
		return 0
	}

	if delay := b.resetAt.Sub(now); delay > 0 {
		return delay
	}

	return 0
}

// RateLimiter tracks per bucket request quotas reported by discord.
// Each bucket is locked independently and no lock is held while waiting.
type RateLimiter struct {
	buckets syncmap.Map[string, *bucket]
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{}
}

// Wait blocks until the bucket has capacity. Unknown buckets never block.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	b, ok := rl.buckets.Load(key)
	if !ok {
		return nil
	}

	delay := b.delay(time.Now())
	if delay <= 0 {
		return nil
	}

	method, _, _ := strings.Cut(key, " ")
	RestMetrics.RateLimitWaits.WithLabelValues(method).Inc()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delay returns how long Wait would currently block for the bucket.
func (rl *RateLimiter) Delay(key string) time.Duration {
	b, ok := rl.buckets.Load(key)
	if !ok {
		return 0
	}

	return b.delay(time.Now())
}

// Record updates the bucket from response headers. Headers that are missing
// or malformed leave the previous values untouched.
func (rl *RateLimiter) Record(key string, headers http.Header) {
	remaining, hasRemaining := parseRemaining(headers.Get(HeaderRateLimitRemaining))
	resetAfter, hasResetAfter := parseResetAfter(headers.Get(HeaderRateLimitResetAfter))

	if !hasRemaining && !hasResetAfter {
		return
	}

	b, _ := rl.buckets.LoadOrNew(key, func() *bucket { return &bucket{} })

	now := time.Now()

	b.mu.Lock()

	if hasRemaining {
		b.remaining = remaining
		b.hasRemaining = true
	}

	if hasResetAfter {
		b.resetAt = now.Add(resetAfter)
	}

	b.mu.Unlock()
}

// Bucket returns the last recorded state of a bucket.
func (rl *RateLimiter) Bucket(key string) (remaining int64, resetAt time.Time, ok bool) {
	b, ok := rl.buckets.Load(key)
	if !ok {
		return 0, time.Time{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.remaining, b.resetAt, b.hasRemaining
}

// Len returns the number of known buckets.
func (rl *RateLimiter) Len() int {
	return rl.buckets.Len()
}

func parseRemaining(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}

	remaining, err := strconv.ParseInt(value, 10, 64)
	if err != nil || remaining < 0 {
		return 0, false
	}

	return remaining, true
}

func parseResetAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}
