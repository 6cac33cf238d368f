package gamenight

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Discord allows max_concurrency identifies per window, one per bucket,
// where a shard's bucket is shard_id % max_concurrency.
var IdentifyRateLimit = 5*time.Second + 500*time.Millisecond

type IdentifyLimiter struct {
	buckets []*rate.Limiter
}

func NewIdentifyLimiter(maxConcurrency int32) *IdentifyLimiter {
	maxConcurrency = max(maxConcurrency, 1)

	limiter := &IdentifyLimiter{
		buckets: make([]*rate.Limiter, maxConcurrency),
	}

	for i := range limiter.buckets {
		limiter.buckets[i] = rate.NewLimiter(rate.Every(IdentifyRateLimit), 1)
	}

	return limiter
}

// Wait blocks until shardID may identify.
func (l *IdentifyLimiter) Wait(ctx context.Context, shardID int32) error {
	return l.buckets[int(shardID)%len(l.buckets)].Wait(ctx)
}

func (l *IdentifyLimiter) Buckets() int {
	return len(l.buckets)
}
