package sigdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const minCacheSize = 512 * 1024

// Cache memoizes lookups of another database in a freecache segment. Empty
// results are cached too; errors are not.
type Cache struct {
	next  Database
	cache *freecache.Cache
	ttl   time.Duration
}

// NewCache wraps next with a cache of sizeMB megabytes. A ttl of zero keeps
// entries until they are evicted.
func NewCache(next Database, sizeMB int, ttl time.Duration) *Cache {
	size := sizeMB * 1024 * 1024
	if size < minCacheSize {
		size = minCacheSize
	}
	return &Cache{
		next:  next,
		cache: freecache.NewCache(size),
		ttl:   ttl,
	}
}

func (c *Cache) LookupSelector(ctx context.Context, selector [4]byte) ([]string, error) {
	return c.lookup("fn:"+hexutil.Encode(selector[:]), func() ([]string, error) {
		return c.next.LookupSelector(ctx, selector)
	})
}

func (c *Cache) LookupEvent(ctx context.Context, topic common.Hash) ([]string, error) {
	return c.lookup("ev:"+topic.Hex(), func() ([]string, error) {
		return c.next.LookupEvent(ctx, topic)
	})
}

// Stats returns the cache hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.cache.HitCount(), c.cache.MissCount()
}

func (c *Cache) lookup(key string, load func() ([]string, error)) ([]string, error) {
	if raw, err := c.cache.Get([]byte(key)); err == nil {
		var sigs []string
		if err := json.Unmarshal(raw, &sigs); err == nil {
			return sigs, nil
		}
	} else if !errors.Is(err, freecache.ErrNotFound) {
		return nil, err
	}

	sigs, err := load()
	if err != nil {
		return nil, err
	}
	if sigs == nil {
		sigs = []string{}
	}
	if raw, err := json.Marshal(sigs); err == nil {
		// Oversized entries are returned uncached.
		_ = c.cache.Set([]byte(key), raw, int(c.ttl.Seconds()))
	}
	return sigs, nil
}
