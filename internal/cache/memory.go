// Package cache keeps computed responses in memory for a limited time.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lastlap/shipment-carbon/internal/must"
)

var ErrNotFound = errors.New("cache entry not found")

type entry[V any] struct {
	expiresAt time.Time
	v         V
}

func (e *entry[V]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt) || now.Equal(e.expiresAt)
}

// Memory is a TTL cache safe for concurrent use. Expired entries are evicted
// on read and by a background sweep that stops with the context given to
// NewMemory.
type Memory[V any] struct {
	m          *sync.Map
	defaultTTL time.Duration
	now        func() time.Time
}

func NewMemory[V any](ctx context.Context, defaultTTL time.Duration) *Memory[V] {
	cache := &Memory[V]{
		m:          new(sync.Map),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}

	go cache.expirer(ctx, time.Second)

	return cache
}

func (m *Memory[V]) Set(k string, v V, ttl ...time.Duration) {
	cacheDuration := m.defaultTTL
	if len(ttl) > 0 {
		cacheDuration = ttl[0]
	}

	m.m.Store(k, &entry[V]{
		expiresAt: m.now().Add(cacheDuration),
		v:         v,
	})

	slog.Debug("new cache entry", "key", k, "ttl", cacheDuration)
}

func (m *Memory[V]) Get(k string) (v V, err error) {
	loaded, found := m.m.Load(k)
	if !found {
		return v, ErrNotFound
	}

	e, ok := loaded.(*entry[V])
	must.Assert(ok, "loaded value is not an entry", "key", k)

	if e.isExpired(m.now()) {
		slog.Debug("cache expired", "key", k)
		m.m.Delete(k)
		return v, ErrNotFound
	}

	return e.v, nil
}

// GetOrSet returns the cached value of key or stores the value computed by
// valueFunc. Errors from valueFunc are returned and never cached.
func (m *Memory[V]) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (V, error), ttl ...time.Duration) (v V, err error) {
	v, err = m.Get(key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return v, err
	}

	v, err = valueFunc(ctx)
	if err != nil {
		return v, err
	}

	m.Set(key, v, ttl...)
	return v, nil
}

// Len returns the number of entries, expired entries not yet evicted included.
func (m *Memory[V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *Memory[V]) evict() {
	now := m.now()
	m.m.Range(func(k, v any) bool {
		e, ok := v.(*entry[V])
		must.Assert(ok, "loaded value is not an entry", "key", k)

		if e.isExpired(now) {
			slog.Debug("cache expired", "key", k)
			m.m.Delete(k)
		}
		return true
	})
}

func (m *Memory[V]) expirer(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evict()
		}
	}
}
