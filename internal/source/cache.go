package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/ignite/summit-insights/internal/pkg/distlock"
)

// Cache stores raw export bytes under a key for a limited time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is an in-process Cache. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		// A concurrent Set may have replaced the entry since the read lock was dropped.
		if cur, ok := m.entries[key]; ok && !cur.expires.IsZero() && !m.now().Before(cur.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// RedisCache keeps the export in Redis so several server instances share one download.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// CachedSource serves the export from a Cache and falls back to the wrapped Source on a
// miss. Concurrent misses share a single upstream fetch.
type CachedSource struct {
	src   Source
	cache Cache
	key   string
	ttl   time.Duration
	group singleflight.Group

	// fetchTimeout bounds a shared fetch, which outlives the request that started it.
	fetchTimeout time.Duration

	newLock  func(key string) distlock.DistLock
	lockWait time.Duration
	lockPoll time.Duration
}

// DefaultFetchTimeout bounds one shared upstream fetch.
const DefaultFetchTimeout = 2 * time.Minute

// NewCachedSource wraps src. A ttl of zero keeps entries until Refresh.
func NewCachedSource(src Source, cache Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src:          src,
		cache:        cache,
		key:          "export:" + src.Name(),
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// SetFetchTimeout changes the bound on a shared upstream fetch.
func (c *CachedSource) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		c.fetchTimeout = d
	}
}

// SetFillLock makes cache misses coordinate across instances sharing the cache. The
// instance holding the lock downloads; the others poll the cache for up to wait and then
// fetch on their own.
func (c *CachedSource) SetFillLock(newLock func(key string) distlock.DistLock, wait time.Duration) {
	c.newLock = newLock
	c.lockWait = wait
	c.lockPoll = wait / 20
	if c.lockPoll < 10*time.Millisecond {
		c.lockPoll = 10 * time.Millisecond
	}
}

// Fetch returns cached bytes when present. Cache errors are logged and treated as a miss.
func (c *CachedSource) Fetch(ctx context.Context) ([]byte, error) {
	data, ok, err := c.cache.Get(ctx, c.key)
	if err != nil {
		log.Printf("[source] cache read failed, fetching %s: %v", c.src.Name(), err)
	}
	if ok {
		return data, nil
	}
	return c.load(ctx, true)
}

// Refresh skips the cache, fetches from the source and stores the result.
func (c *CachedSource) Refresh(ctx context.Context) ([]byte, error) {
	return c.load(ctx, false)
}

// load runs one upstream fetch per key for all concurrent callers. The fetch is detached
// from the caller that started it so a cancelled request does not fail the others; each
// caller still stops waiting when its own context ends.
func (c *CachedSource) load(ctx context.Context, coordinate bool) ([]byte, error) {
	ch := c.group.DoChan(c.key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fill(ctx, coordinate)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *CachedSource) fill(ctx context.Context, coordinate bool) ([]byte, error) {
	if coordinate && c.newLock != nil {
		lock := c.newLock(c.key)
		data, ok, release := c.waitForFill(ctx, lock)
		if release {
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					log.Printf("[source] %v", err)
				}
			}()
		}
		if ok {
			return data, nil
		}
	}

	data, err := c.src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = c.cache.Delete(ctx, c.key)
		}
		return nil, err
	}
	if err := c.cache.Set(ctx, c.key, data, c.ttl); err != nil {
		log.Printf("[source] cache write failed for %s: %v", c.src.Name(), err)
	}
	return data, nil
}

// waitForFill takes the fill lock or, when a peer holds it, polls the cache until the peer
// stores the export or the wait runs out. release reports whether we own the lock.
func (c *CachedSource) waitForFill(ctx context.Context, lock distlock.DistLock) (data []byte, ok, release bool) {
	got, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("[source] %v; fetching without lock", err)
		return nil, false, false
	}
	if got {
		// A peer may have filled the cache between our miss and the lock.
		data, ok, _ = c.cache.Get(ctx, c.key)
		return data, ok, true
	}

	deadline := time.NewTimer(c.lockWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.lockPoll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, false, false
		case <-deadline.C:
			log.Printf("[source] gave up waiting for peer fill of %s", c.src.Name())
			return nil, false, false
		case <-tick.C:
			if data, ok, _ := c.cache.Get(ctx, c.key); ok {
				return data, true, false
			}
		}
	}
}

func (c *CachedSource) Name() string { return "cached:" + c.src.Name() }

// Refresher is implemented by sources that can bypass their cache.
type Refresher interface {
	Refresh(ctx context.Context) ([]byte, error)
}
