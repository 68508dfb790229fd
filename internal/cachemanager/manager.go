// Package cachemanager provides a typed in-memory cache over go-cache and a
// read-through wrapper that fills it from a loader on a miss.
package cachemanager

import (
	"time"
)

type CacheManager[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(keys ...K)
	Flush()
	Len() int
}
