package cachemanager

import (
	"time"
)

// ReadThroughCache answers from cache and falls back to a loader on a miss.
// Loader errors are returned and not cached.
type ReadThroughCache[K ~string, V any] struct {
	cache    CacheManager[K, V]
	fn       func(key K) (V, error)
	onLookup func(hit bool)
}

// NewReadThroughCache wraps cache with fn. onLookup, when not nil, is called
// once per Get with whether the value came from cache.
func NewReadThroughCache[K ~string, V any](
	cache CacheManager[K, V],
	fn func(key K) (V, error),
	onLookup func(hit bool),
) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{
		cache:    cache,
		fn:       fn,
		onLookup: onLookup,
	}
}

func (r *ReadThroughCache[K, V]) Get(key K, ttl time.Duration) (V, error) {
	if value, ok := r.cache.Get(key); ok {
		r.lookup(true)
		return value, nil
	}
	r.lookup(false)

	value, err := r.fn(key)
	if err != nil {
		return value, err
	}

	r.cache.Set(key, value, ttl)
	return value, nil
}

// Flush drops every cached value.
func (r *ReadThroughCache[K, V]) Flush() {
	r.cache.Flush()
}

func (r *ReadThroughCache[K, V]) lookup(hit bool) {
	if r.onLookup != nil {
		r.onLookup(hit)
	}
}
