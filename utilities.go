package gamenight

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// returnRange converts a string like 0-4,6-7 to [0,1,2,3,4,6,7]. Values
// outside [0, limit) are dropped. An empty string returns every id below limit.
func returnRange(rangeString string, limit int32) ([]int32, error) {
	rangeString = strings.TrimSpace(rangeString)

	if rangeString == "" {
		result := make([]int32, limit)
		for i := range result {
			result[i] = int32(i)
		}

		return result, nil
	}

	seen := make(map[int32]bool)
	result := make([]int32, 0)

	for _, split := range strings.Split(rangeString, ",") {
		lowString, highString, isRange := strings.Cut(strings.TrimSpace(split), "-")
		if !isRange {
			highString = lowString
		}

		low, err := strconv.ParseInt(strings.TrimSpace(lowString), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid shard range %q: %w", split, err)
		}

		high, err := strconv.ParseInt(strings.TrimSpace(highString), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid shard range %q: %w", split, err)
		}

		if low > high {
			return nil, fmt.Errorf("invalid shard range %q: %d is above %d", split, low, high)
		}

		low = max(low, 0)
		high = min(high, int64(limit)-1)

		for i := low; i <= high; i++ {
			if !seen[int32(i)] {
				seen[int32(i)] = true
				result = append(result, int32(i))
			}
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	return result, nil
}

// randomDelay returns a duration in [low, high).
func randomDelay(low, high time.Duration) time.Duration {
	if high <= low {
		return low
	}

	return low + time.Duration(rand.Int63n(int64(high-low)))
}

// sleepContext waits for d. It returns false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
