// internal/cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"trendscout/internal/common/logger"
	"trendscout/internal/common/metrics"
	"trendscout/internal/models"
)

// Key identifies one cached fetch result set.
type Key struct {
	Source   string
	Query    string
	Category string
}

// Hash returns the stable persistent-layout key: sha256 over
// source|normalized query|category.
func (k Key) Hash() string {
	raw := fmt.Sprintf("%s|%s|%s", k.Source, models.NormalizeKeyword(k.Query), k.Category)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Entry is the unit stored in both tiers. The on-disk/redis encoding keeps
// FetchedAt and TTL so expiry survives process restarts.
type Entry struct {
	Records    []models.SignalRecord `json:"records"`
	FetchedAt  time.Time             `json:"fetchedAt"`
	TTLSeconds int64                 `json:"ttlSeconds"`
}

func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.FetchedAt.Add(time.Duration(e.TTLSeconds) * time.Second))
}

// Store is the persistent tier. Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, hash string) (*Entry, error)
	Put(ctx context.Context, hash string, entry *Entry) error
	Delete(ctx context.Context, hash string) error
}

const lockStripes = 64

// Cache is the two-tier store: a bounded in-process LRU in front of an
// unbounded persistent tier. Accesses are serialized per key via striped
// mutexes; different keys proceed in parallel.
type Cache struct {
	memory *lruTier
	store  Store
	locks  [lockStripes]sync.Mutex
	log    logger.Logger
	now    func() time.Time
}

func New(memoryMaxEntries int, store Store, log logger.Logger) *Cache {
	return &Cache{
		memory: newLRUTier(memoryMaxEntries),
		store:  store,
		log:    log.WithFields(map[string]interface{}{"component": "cache"}),
		now:    time.Now,
	}
}

// lock picks the stripe for a key. The hash is hex, so a single character
// only spans 16 values; decoding a full byte spreads keys over every stripe.
func (c *Cache) lock(hash string) *sync.Mutex {
	b, err := hex.DecodeString(hash[:2])
	if err != nil || len(b) == 0 {
		return &c.locks[hash[0]%lockStripes]
	}
	return &c.locks[b[0]%lockStripes]
}

// Get checks memory first, then the persistent tier, promoting unexpired
// persistent hits into memory. Expired entries are deleted from both tiers on
// the lookup that observes expiry.
func (c *Cache) Get(ctx context.Context, key Key) ([]models.SignalRecord, bool, error) {
	hash := key.Hash()
	mu := c.lock(hash)
	mu.Lock()
	defer mu.Unlock()

	now := c.now()

	if entry, ok := c.memory.get(hash); ok {
		if !entry.Expired(now) {
			metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
			return entry.Records, true, nil
		}
		c.memory.delete(hash)
		if err := c.store.Delete(ctx, hash); err != nil {
			c.log.Warn("failed to evict expired entry from persistent tier", map[string]interface{}{
				"key":   hash,
				"error": err,
			})
		}
		metrics.CacheLookups.WithLabelValues("memory", "expired").Inc()
		return nil, false, nil
	}
	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	entry, err := c.store.Get(ctx, hash)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		metrics.CacheLookups.WithLabelValues("persistent", "miss").Inc()
		return nil, false, nil
	}
	if entry.Expired(now) {
		if err := c.store.Delete(ctx, hash); err != nil {
			c.log.Warn("failed to evict expired entry from persistent tier", map[string]interface{}{
				"key":   hash,
				"error": err,
			})
		}
		metrics.CacheLookups.WithLabelValues("persistent", "expired").Inc()
		return nil, false, nil
	}

	c.memory.put(hash, entry)
	metrics.CacheLookups.WithLabelValues("persistent", "hit").Inc()
	return entry.Records, true, nil
}

// Put writes both tiers synchronously relative to the caller, so a crash
// immediately after Put cannot lose data the caller has seen acknowledged.
func (c *Cache) Put(ctx context.Context, key Key, records []models.SignalRecord, ttl time.Duration) error {
	hash := key.Hash()
	mu := c.lock(hash)
	mu.Lock()
	defer mu.Unlock()

	entry := &Entry{
		Records:    records,
		FetchedAt:  c.now(),
		TTLSeconds: int64(ttl / time.Second),
	}

	if err := c.store.Put(ctx, hash, entry); err != nil {
		return err
	}
	c.memory.put(hash, entry)
	return nil
}

// Invalidate removes the key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	hash := key.Hash()
	mu := c.lock(hash)
	mu.Lock()
	defer mu.Unlock()

	c.memory.delete(hash)
	return c.store.Delete(ctx, hash)
}
