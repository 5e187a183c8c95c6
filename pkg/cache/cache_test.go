package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore(16, time.Hour)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "posts", []byte(`[1]`), time.Minute))

	got, ok, err := s.Get(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1]`), got)

	now = now.Add(time.Minute)
	_, ok, err = s.Get(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)
	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, ok, _ := s.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStoreDeleteAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16, time.Hour)
	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, s.Close())
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Hour)
	require.NoError(t, s.Set(ctx, "posts:published", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "post:slug:feria", []byte("2"), 0))

	_, ok, _ := s.Get(ctx, "posts:published")
	require.True(t, ok)
	require.NoError(t, s.Set(ctx, "post:slug:vivero", []byte("3"), 0))

	_, ok, _ = s.Get(ctx, "post:slug:feria")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok, _ = s.Get(ctx, "posts:published")
	assert.True(t, ok)
}

func TestMemoryStoreTTLCeiling(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 50*time.Millisecond)
	require.NoError(t, s.Set(ctx, "posts", []byte("1"), time.Hour))

	assert.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "posts")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
