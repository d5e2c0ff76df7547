package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polsebas/agente-admin-observabilidad/internal/model"
)

func TestMemorySetIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0, time.Minute)

	first := model.CacheEntry{Fingerprint: "fp", Report: "first", Timestamp: time.Now()}
	existing, stored, err := store.SetIfAbsent(ctx, "fp", first, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Nil(t, existing)

	second := model.CacheEntry{Fingerprint: "fp", Report: "second", Timestamp: time.Now()}
	existing, stored, err = store.SetIfAbsent(ctx, "fp", second, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	require.NotNil(t, existing)
	assert.Equal(t, "first", existing.Report)
}

func TestMemoryEntriesExpire(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10, 50*time.Millisecond)

	_, stored, err := store.SetIfAbsent(ctx, "fp", model.CacheEntry{Report: "a"}, 0)
	require.NoError(t, err)
	require.True(t, stored)

	assert.Eventually(t, func() bool {
		_, stored, _ := store.SetIfAbsent(ctx, "fp", model.CacheEntry{Report: "b"}, 0)
		return stored
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMemoryConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, stored, err := store.SetIfAbsent(ctx, "same", model.CacheEntry{Report: "r"}, time.Minute)
			if err == nil && stored {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, store.Len())
}
