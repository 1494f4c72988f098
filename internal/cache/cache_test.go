// SPDX-License-Identifier: MIT

package cache

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("key1", []byte("value1"), 5*time.Minute)

	val, ok := c.Get("key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, []byte("value1"), val)

	_, ok = c.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent key")
}

func TestMemoryCacheExpiration(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("shortlived", []byte("value"), 50*time.Millisecond)

	val, ok := c.Get("shortlived")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), val)

	time.Sleep(100 * time.Millisecond)

	_, ok = c.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("pinned", []byte("value"), 0)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("pinned")
	assert.True(t, ok, "zero ttl entries must not expire")
}

func TestMemoryCacheCopiesPayloads(t *testing.T) {
	c := NewMemoryCache(0)

	payload := []byte("original")
	c.Set("key", payload, 5*time.Minute)
	payload[0] = 'X'

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("key1", []byte("value1"), 5*time.Minute)
	_, ok := c.Get("key1")
	require.True(t, ok)

	c.Delete("key1")

	_, ok = c.Get("key1")
	assert.False(t, ok)
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("key1", []byte("value1"), 5*time.Minute)
	c.Set("key2", []byte("value2"), 5*time.Minute)
	c.Set("key3", []byte("value3"), 5*time.Minute)

	stats := c.Stats()
	assert.Equal(t, 3, stats.CurrentSize)

	c.Clear()

	stats = c.Stats()
	assert.Equal(t, 0, stats.CurrentSize)

	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewMemoryCache(0)

	c.Set("key1", []byte("value1"), 5*time.Minute)
	c.Set("key2", []byte("value2"), 5*time.Minute)

	c.Get("key1")        // hit
	c.Get("key1")        // hit
	c.Get("nonexistent") // miss

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, 2, stats.CurrentSize)
}

func TestMemoryCacheJanitor(t *testing.T) {
	c := NewMemoryCache(50 * time.Millisecond)
	defer c.(*memoryCache).Stop()

	c.Set("key1", []byte("value1"), 30*time.Millisecond)
	c.Set("key2", []byte("value2"), 30*time.Millisecond)
	c.Set("longLived", []byte("value3"), 10*time.Second)

	time.Sleep(150 * time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 1, stats.CurrentSize, "janitor should have removed expired entries")
	assert.Greater(t, stats.Evictions, int64(0), "evictions should have occurred")

	_, ok := c.Get("longLived")
	assert.True(t, ok, "long-lived entry should still exist")
}

func TestMemoryCacheConcurrentAccess(_ *testing.T) {
	c := NewMemoryCache(1 * time.Minute)
	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			c.Set("key", []byte{byte(i)}, 5*time.Minute)
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			c.Get("key")
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	<-done
	<-done
}

func TestKey(t *testing.T) {
	assert.Equal(t, "describe", Key("describe"))
	assert.Equal(t, "describe:ds-1", Key("describe", "ds-1"))
	assert.Equal(t, "histogram:ds-1:price:20", Key("histogram", "ds-1", "price", "20"))
}

func TestOpenFactory(t *testing.T) {
	mem, err := Open(Config{Backend: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &memoryCache{}, mem)

	off, err := Open(Config{Backend: "none"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &noOpCache{}, off)

	def, err := Open(Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &memoryCache{}, def)

	_, err = Open(Config{Backend: "memcached"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()

	c.Set("key", []byte("value"), 5*time.Minute)

	_, ok := c.Get("key")
	assert.False(t, ok, "noop cache should never return values")

	c.Delete("key")
	c.Clear()

	assert.Equal(t, Stats{}, c.Stats())
}

func BenchmarkMemoryCacheSet(b *testing.B) {
	c := NewMemoryCache(0)
	payload := []byte("value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key", payload, 5*time.Minute)
	}
}

func BenchmarkMemoryCacheGet(b *testing.B) {
	c := NewMemoryCache(0)
	c.Set("key", []byte("value"), 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
