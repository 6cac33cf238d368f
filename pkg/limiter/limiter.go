package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ConcurrencyLimiter limits the number of functions running at once.
type ConcurrencyLimiter struct {
	tickets    chan int
	inProgress atomic.Int32
	waiting    atomic.Int32
}

// NewConcurrencyLimiter allocates a new ConcurrencyLimiter with limit tickets.
func NewConcurrencyLimiter(limit int) *ConcurrencyLimiter {
	if limit < 1 {
		limit = 1
	}

	c := &ConcurrencyLimiter{
		tickets: make(chan int, limit),
	}

	for i := 0; i < limit; i++ {
		c.tickets <- i
	}

	return c
}

// Wait waits for a free ticket. Callers must FreeTicket the returned ticket.
func (c *ConcurrencyLimiter) Wait(ctx context.Context) (ticket int, err error) {
	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	select {
	case ticket = <-c.tickets:
		c.inProgress.Add(1)

		return ticket, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// FreeTicket adds the ticket back into the queue.
func (c *ConcurrencyLimiter) FreeTicket(ticket int) {
	c.inProgress.Add(-1)
	c.tickets <- ticket
}

// InProgress returns how many tickets are being used.
func (c *ConcurrencyLimiter) InProgress() int32 {
	return c.inProgress.Load()
}

// Waiting returns how many callers are waiting for a ticket.
func (c *ConcurrencyLimiter) Waiting() int32 {
	return c.waiting.Load()
}

// DurationLimiter allows an operation to run limit times every duration.
type DurationLimiter struct {
	mu sync.Mutex

	limit    int32
	duration time.Duration

	resetsAt  time.Time
	available int32
}

// NewDurationLimiter creates a DurationLimiter.
func NewDurationLimiter(limit int32, duration time.Duration) *DurationLimiter {
	return &DurationLimiter{
		limit:    limit,
		duration: duration,
	}
}

// Lock waits until there is an available slot in the limiter.
func (l *DurationLimiter) Lock(ctx context.Context) error {
	for {
		wait := l.take(time.Now())
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		}
	}
}

// take consumes a slot and returns zero, or returns how long until the window resets.
func (l *DurationLimiter) take(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.resetsAt) {
		l.resetsAt = now.Add(l.duration)
		l.available = l.limit
	}

	if l.available <= 0 {
		return l.resetsAt.Sub(now)
	}

	l.available--

	return 0
}

// Reset starts a new window with all slots available.
func (l *DurationLimiter) Reset() {
	l.mu.Lock()
	l.resetsAt = time.Now().Add(l.duration)
	l.available = l.limit
	l.mu.Unlock()
}
