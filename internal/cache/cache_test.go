// internal/cache/cache_test.go
package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/common/logger"
	"trendscout/internal/models"
)

var baseTime = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func newFileCache(t *testing.T, maxEntries int) (*Cache, *time.Time) {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	now := baseTime
	c := New(maxEntries, store, logger.NewTestLogger(t))
	c.now = func() time.Time { return now }
	return c, &now
}

func testRecords(query string) []models.SignalRecord {
	return []models.SignalRecord{{
		Source:    "reddit",
		Query:     query,
		RawVolume: 123,
		Timestamp: baseTime.Add(-time.Hour),
	}}
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newFileCache(t, 16)
	ctx := context.Background()
	key := Key{Source: "reddit", Query: "ergonomic chair", Category: "home"}

	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Put(ctx, key, testRecords("ergonomic chair"), time.Hour))

	records, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, records, 1)
	assert.Equal(t, int64(123), records[0].RawVolume)
}

func TestCacheKeyNormalization(t *testing.T) {
	a := Key{Source: "reddit", Query: "Ergonomic  CHAIR", Category: "home"}
	b := Key{Source: "reddit", Query: "ergonomic chair", Category: "home"}
	c := Key{Source: "youtube", Query: "ergonomic chair", Category: "home"}

	assert.Equal(t, a.Hash(), b.Hash(), "query casing and spacing must not split cache entries")
	assert.NotEqual(t, a.Hash(), c.Hash(), "different sources are different entries")
}

func TestCacheExpiryIsLazy(t *testing.T) {
	c, now := newFileCache(t, 16)
	ctx := context.Background()
	key := Key{Source: "rss", Query: "standing desk"}

	require.NoError(t, c.Put(ctx, key, testRecords("standing desk"), time.Hour))

	*now = now.Add(59 * time.Minute)
	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit, "entry is still inside its TTL")

	*now = now.Add(2 * time.Minute)
	_, hit, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit, "expired on the lookup that observed it")

	// Expiry evicted both tiers: still a miss after more time passes.
	_, hit, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCachePersistentTierSurvivesMemoryEviction(t *testing.T) {
	c, _ := newFileCache(t, 2)
	ctx := context.Background()

	keys := make([]Key, 4)
	for i := range keys {
		keys[i] = Key{Source: "reddit", Query: fmt.Sprintf("keyword %d", i)}
		require.NoError(t, c.Put(ctx, keys[i], testRecords(keys[i].Query), time.Hour))
	}
	assert.Equal(t, 2, c.memory.len(), "memory tier is bounded")

	// The evicted oldest key is still served from the persistent tier.
	records, hit, err := c.Get(ctx, keys[0])
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "keyword 0", records[0].Query)
}

func TestCachePromotionRefreshesMemory(t *testing.T) {
	c, _ := newFileCache(t, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := Key{Source: "reddit", Query: fmt.Sprintf("keyword %d", i)}
		require.NoError(t, c.Put(ctx, key, testRecords(key.Query), time.Hour))
	}

	evicted := Key{Source: "reddit", Query: "keyword 0"}
	_, hit, err := c.Get(ctx, evicted)
	require.NoError(t, err)
	require.True(t, hit)

	_, inMemory := c.memory.get(evicted.Hash())
	assert.True(t, inMemory, "persistent hit must be promoted into memory")
}

func TestCacheLockStripesAllUsed(t *testing.T) {
	c, _ := newFileCache(t, 16)

	stripes := make(map[*sync.Mutex]struct{})
	for i := 0; i < 256; i++ {
		hash := fmt.Sprintf("%02x%062d", i, 0)
		stripes[c.lock(hash)] = struct{}{}
	}
	assert.Len(t, stripes, lockStripes, "keys must spread across every stripe")
}

func TestCacheInvalidateRemovesBothTiers(t *testing.T) {
	c, _ := newFileCache(t, 16)
	ctx := context.Background()
	key := Key{Source: "amazon", Query: "air fryer"}

	require.NoError(t, c.Put(ctx, key, testRecords("air fryer"), time.Hour))
	require.NoError(t, c.Invalidate(ctx, key))

	_, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFileStoreCorruptEntryIsAMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key := Key{Source: "rss", Query: "broken"}
	require.NoError(t, store.Put(ctx, key.Hash(), &Entry{FetchedAt: baseTime, TTLSeconds: 3600}))

	// Corrupt the document on disk.
	fs := store.(*fileStore)
	require.NoError(t, os.WriteFile(fs.path(key.Hash()), []byte("{not json"), 0o644))

	entry, err := store.Get(ctx, key.Hash())
	require.NoError(t, err)
	assert.Nil(t, entry, "corrupt entries read as misses, not errors")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreFromClient(client)
	ctx := context.Background()

	c := New(16, store, logger.NewTestLogger(t))
	c.now = func() time.Time { return baseTime }

	key := Key{Source: "google_trends", Query: "walking pad"}
	require.NoError(t, c.Put(ctx, key, testRecords("walking pad"), time.Hour))

	// Wipe memory to force the persistent tier.
	c.memory = newLRUTier(16)

	records, hit, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "walking pad", records[0].Query)
}

func TestRedisStoreExpiresServerSide(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreFromClient(client)
	ctx := context.Background()

	entry := &Entry{Records: testRecords("x"), FetchedAt: baseTime, TTLSeconds: 60}
	require.NoError(t, store.Put(ctx, "expiring", entry))

	srv.FastForward(61 * time.Second)

	got, err := store.Get(ctx, "expiring")
	require.NoError(t, err)
	assert.Nil(t, got, "redis reclaims the key on its own after the TTL")
}

func TestRedisStoreMiss(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreFromClient(client)

	entry, err := store.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRedisStoreSetsServerSideTTL(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreFromClient(client)
	ctx := context.Background()

	entry := &Entry{Records: testRecords("x"), FetchedAt: baseTime, TTLSeconds: 60}
	require.NoError(t, store.Put(ctx, "somehash", entry))

	ttl := srv.TTL(redisKeyPrefix + "somehash")
	assert.Equal(t, 60*time.Second, ttl)
}

func TestLRUTierEvictsOldest(t *testing.T) {
	lru := newLRUTier(2)

	lru.put("a", &Entry{})
	lru.put("b", &Entry{})
	lru.put("c", &Entry{})

	_, ok := lru.get("a")
	assert.False(t, ok, "oldest entry must be evicted")
	_, ok = lru.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, lru.len())
}

func TestLRUTierGetRefreshesRecency(t *testing.T) {
	lru := newLRUTier(2)

	lru.put("a", &Entry{})
	lru.put("b", &Entry{})
	lru.get("a") // a is now the most recent
	lru.put("c", &Entry{})

	_, ok := lru.get("a")
	assert.True(t, ok)
	_, ok = lru.get("b")
	assert.False(t, ok)
}
