package gamenight_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitHeaders(remaining, resetAfter string) http.Header {
	headers := http.Header{}

	if remaining != "" {
		headers.Set(gamenight.HeaderRateLimitRemaining, remaining)
	}

	if resetAfter != "" {
		headers.Set(gamenight.HeaderRateLimitResetAfter, resetAfter)
	}

	return headers
}

func TestRateLimiterUnknownBucketDoesNotBlock(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "GET /unknown"))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterWaitsUntilReset(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", limitHeaders("0", "0.2"))

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "bucket"))

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 180*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestRateLimiterSpareCapacityDoesNotBlock(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", limitHeaders("3", "10"))

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "bucket"))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterPastResetDoesNotBlock(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", limitHeaders("0", "0"))

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "bucket"))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterMissingHeadersKeepState(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", limitHeaders("0", "5"))
	rl.Record("bucket", http.Header{})
	rl.Record("bucket", limitHeaders("", "bogus"))

	remaining, resetAt, ok := rl.Bucket("bucket")
	require.True(t, ok)
	assert.Equal(t, int64(0), remaining)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), resetAt, time.Second)
}

func TestRateLimiterNoHeadersCreatesNoBucket(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", http.Header{})

	assert.Equal(t, 0, rl.Len())
}

func TestRateLimiterBucketIsolation(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("a", limitHeaders("0", "1"))
	rl.Record("b", limitHeaders("5", "1"))

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "b"))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestRateLimiterWaitDoesNotBlockOtherBuckets(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("slow", limitHeaders("0", "0.5"))

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		_ = rl.Wait(context.Background(), "slow")
	}()

	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	rl.Record("fast", limitHeaders("1", "1"))
	require.NoError(t, rl.Wait(context.Background(), "fast"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	wg.Wait()
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	rl.Record("bucket", limitHeaders("0", "10"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, rl.Wait(ctx, "bucket"), context.DeadlineExceeded)
}

func TestRateLimiterDelay(t *testing.T) {
	t.Parallel()

	rl := gamenight.NewRateLimiter()
	assert.Zero(t, rl.Delay("bucket"))

	rl.Record("bucket", limitHeaders("0", "2"))

	delay := rl.Delay("bucket")
	assert.Greater(t, delay, time.Second)
	assert.LessOrEqual(t, delay, 2*time.Second)

	rl.Record("bucket", limitHeaders("5", "2"))
	assert.Zero(t, rl.Delay("bucket"))
}
