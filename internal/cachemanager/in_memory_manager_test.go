package cachemanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schhibra/ntuple-tools/internal/selection"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []selection.Selection]("patterns", DefaultExpiration, DefaultCleanupInterval)
	sels := []selection.Selection{selection.New("Pt10", "p_{T}^{TOBJ}>=10GeV", "pt >= 10")}
	cache.Set("^Pt", sels, 0)

	got, ok := cache.Get("^Pt")
	require.True(t, ok)
	require.Equal(t, sels, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_GetMissingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get("absent")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	cache.Set("short", "lived", time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get("short")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, int]("test", DefaultExpiration, DefaultCleanupInterval)
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)
	cache.Set("c", 3, 0)

	cache.Delete("a", "b")
	_, ok := cache.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, cache.Len())

	cache.Flush()
	require.Zero(t, cache.Len())
}

type typedKey string

func TestInMemoryCacheManager_TypedKey(t *testing.T) {
	cache := NewInMemoryCacheManager[typedKey, int]("test", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(typedKey("k"), 7, 0)

	got, ok := cache.Get("k")
	require.True(t, ok)
	require.Equal(t, 7, got)
}
