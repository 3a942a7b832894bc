package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/mkrogh/tekstfix/pkg/errors"
)

// MemoryCache implements an in-memory cache with LRU eviction.
type MemoryCache struct {
	config    CacheConfig
	mu        sync.Mutex
	entries   map[string]*list.Element
	lru       *list.List
	stats     CacheStats
	closeChan chan struct{}
	cleanupWG sync.WaitGroup
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	size      int64
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(config CacheConfig) (*MemoryCache, error) {
	if config.MemoryConfig.CleanupInterval == 0 {
		config.MemoryConfig.CleanupInterval = time.Minute
	}

	cache := &MemoryCache{
		config:    config,
		entries:   make(map[string]*list.Element),
		lru:       list.New(),
		closeChan: make(chan struct{}),
		stats: CacheStats{
			MaxSize: config.MaxSize,
		},
	}

	cache.cleanupWG.Add(1)
	go cache.cleanupRoutine()

	return cache, nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.removeLocked(elem)
		c.stats.Misses++
		return nil, false, nil
	}

	c.lru.MoveToFront(elem)
	c.stats.Hits++
	c.stats.LastAccess = time.Now()

	return entry.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	size := int64(len(value))
	if c.config.MaxSize > 0 && size > c.config.MaxSize {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "value exceeds maximum cache size"),
			errors.Fields{"size": size, "max_size": c.config.MaxSize})
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	} else if c.config.DefaultTTL > 0 {
		expiresAt = time.Now().Add(c.config.DefaultTTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*memoryEntry)
		c.stats.Size += size - entry.size
		entry.value = value
		entry.size = size
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(elem)
	} else {
		if c.config.MaxSize > 0 && c.stats.Size+size > c.config.MaxSize {
			c.evictLocked(size)
		}
		elem := c.lru.PushFront(&memoryEntry{
			key:       key,
			value:     value,
			expiresAt: expiresAt,
			size:      size,
		})
		c.entries[key] = elem
		c.stats.Size += size
	}

	c.stats.Sets++
	c.stats.LastAccess = time.Now()

	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		c.removeLocked(elem)
		c.stats.Deletes++
	}

	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
	c.stats = CacheStats{MaxSize: c.config.MaxSize}

	return nil
}

func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *MemoryCache) Close() error {
	close(c.closeChan)
	c.cleanupWG.Wait()
	return nil
}

// removeLocked unlinks an entry. Caller must hold c.mu.
func (c *MemoryCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
	c.stats.Size -= entry.size
}

// evictLocked removes least recently used entries until neededSpace fits.
// Caller must hold c.mu.
func (c *MemoryCache) evictLocked(neededSpace int64) {
	target := c.config.MaxSize - neededSpace
	for c.stats.Size > target {
		elem := c.lru.Back()
		if elem == nil {
			return
		}
		c.removeLocked(elem)
	}
}

func (c *MemoryCache) cleanupRoutine() {
	defer c.cleanupWG.Done()

	ticker := time.NewTicker(c.config.MemoryConfig.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeChan:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *MemoryCache) cleanupExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []*list.Element
	for _, elem := range c.entries {
		if elem.Value.(*memoryEntry).expired(now) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.removeLocked(elem)
	}
}
