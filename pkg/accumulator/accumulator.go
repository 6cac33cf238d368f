// Package accumulator counts occurrences and keeps a rolling history of how
// many happened in each interval.
package accumulator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type Sample struct {
	StoredAt time.Time `json:"stored_at"`
	Value    int64     `json:"value"`
}

type Accumulator struct {
	acc *atomic.Int64

	mu      sync.RWMutex
	samples []Sample

	storedSamples int
	interval      time.Duration
}

// New creates an accumulator keeping storedSamples samples taken every
// interval. Run must be called for samples to be taken.
func New(storedSamples int, interval time.Duration) *Accumulator {
	return &Accumulator{
		acc:           atomic.NewInt64(0),
		samples:       make([]Sample, 0, storedSamples),
		storedSamples: storedSamples,
		interval:      interval,
	}
}

func (ac *Accumulator) Increment() {
	ac.acc.Inc()
}

func (ac *Accumulator) IncrementBy(n int64) {
	ac.acc.Add(n)
}

// RunOnce stores the count since the previous sample.
func (ac *Accumulator) RunOnce(t time.Time) {
	value := ac.acc.Swap(0)

	ac.mu.Lock()
	ac.samples = append(ac.samples, Sample{StoredAt: t, Value: value})

	if len(ac.samples) > ac.storedSamples {
		ac.samples = append(ac.samples[:0], ac.samples[len(ac.samples)-ac.storedSamples:]...)
	}
	ac.mu.Unlock()
}

// Run samples every interval until ctx is done.
func (ac *Accumulator) Run(ctx context.Context) {
	ticker := time.NewTicker(ac.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			ac.RunOnce(t.UTC())
		}
	}
}

// Last returns up to n of the most recent samples, oldest first.
func (ac *Accumulator) Last(n int) []Sample {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	index := max(len(ac.samples)-n, 0)

	samples := make([]Sample, len(ac.samples)-index)
	copy(samples, ac.samples[index:])

	return samples
}

// Rate is the average count per second over the last n samples.
func (ac *Accumulator) Rate(n int) float64 {
	samples := ac.Last(n)
	if len(samples) == 0 || ac.interval <= 0 {
		return 0
	}

	var sum int64
	for _, sample := range samples {
		sum += sample.Value
	}

	return float64(sum) / (float64(len(samples)) * ac.interval.Seconds())
}
