// Package keylock provides independently lockable entries keyed by an
// identifier, such as one lock per guild.
package keylock

import (
	"context"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/sasha-s/go-csync"
	"go.uber.org/atomic"
)

type entry struct {
	mu csync.Mutex

	// refs counts callers holding or waiting for mu. It is only incremented
	// while the map shard is locked.
	refs atomic.Int32
}

type Locks[K comparable] struct {
	locks *csmap.CsMap[K, *entry]
}

func New[K comparable](size uint64) *Locks[K] {
	return &Locks[K]{
		locks: csmap.Create(
			csmap.WithSize[K, *entry](size),
		),
	}
}

// acquire returns the entry for key, creating it if needed, with a
// reference taken.
func (l *Locks[K]) acquire(key K) *entry {
	var held *entry

	l.locks.SetIf(key, func(previous *entry, found bool) (*entry, bool) {
		if found {
			held = previous
		} else {
			held = &entry{}
		}

		held.refs.Inc()

		return held, !found
	})

	return held
}

// Lock acquires the lock for key. The returned function releases it.
func (l *Locks[K]) Lock(ctx context.Context, key K) (unlock func(), err error) {
	e := l.acquire(key)

	if err := e.mu.CLock(ctx); err != nil {
		e.refs.Dec()

		return nil, err
	}

	return func() {
		e.mu.Unlock()
		e.refs.Dec()
	}, nil
}

// Do runs fn while holding the lock for key.
func (l *Locks[K]) Do(ctx context.Context, key K, fn func() error) error {
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}

	defer unlock()

	return fn()
}

// Forget drops the lock for key if nobody holds or waits for it. It reports
// whether the lock was dropped.
func (l *Locks[K]) Forget(key K) bool {
	return l.locks.DeleteIf(key, func(e *entry) bool {
		return e.refs.Load() == 0
	})
}

func (l *Locks[K]) Len() int {
	return l.locks.Count()
}
