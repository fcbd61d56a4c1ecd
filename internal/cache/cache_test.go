package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, c.Set(ctx, "forever", []byte("y"), 0))

	now = now.Add(2 * time.Second)

	_, ok, _ := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries are dropped on read")
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(5)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}

	for i := 0; i < 6; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte{byte(i)}, time.Hour))
	}

	assert.Equal(t, 5, c.Len())
	_, ok, _ := c.Get(ctx, "k0")
	assert.False(t, ok)
}

func TestGenerationKey(t *testing.T) {
	a := GenerationKey("sys", "user", "gpt-3.5-turbo", "openai")
	b := GenerationKey("sys", "user", "gpt-3.5-turbo", "openai")
	c := GenerationKey("sys", "user", "gpt-4o", "openai")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestNew(t *testing.T) {
	b, err := New(Options{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = New(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, b)

	_, err = New(Options{Backend: "disk"})
	assert.Error(t, err)

	_, err = New(Options{Backend: "redis", RedisURL: "http://not-redis"})
	assert.ErrorContains(t, err, "invalid redis URL")
}
