package cache

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// SQLiteCache implements the Cache interface with SQLite storage, giving
// responses that survive process restarts.
type SQLiteCache struct {
	db        *sql.DB
	config    CacheConfig
	stats     CacheStats
	mu        sync.RWMutex
	closeChan chan struct{}
	cleanupWG sync.WaitGroup
}

// NewSQLiteCache creates a new SQLite-backed cache.
func NewSQLiteCache(config CacheConfig) (*SQLiteCache, error) {
	if config.SQLiteConfig.Path == "" {
		config.SQLiteConfig.Path = "tekstfix_cache.db"
	}

	db, err := sql.Open("sqlite3", config.SQLiteConfig.Path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open sqlite database"),
			errors.Fields{"path": config.SQLiteConfig.Path})
	}

	if config.SQLiteConfig.MaxConnections > 0 {
		db.SetMaxOpenConns(config.SQLiteConfig.MaxConnections)
	} else {
		db.SetMaxOpenConns(10)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	cache := &SQLiteCache{
		db:        db,
		config:    config,
		closeChan: make(chan struct{}),
	}

	if err := cache.initDB(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.Unknown, "failed to initialize cache schema")
	}

	if config.SQLiteConfig.EnableWAL {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, errors.Unknown, "failed to enable WAL mode")
		}
	}

	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logging.GetLogger().Warn(context.Background(), "Failed to set pragma %s: %v", pragma, err)
		}
	}

	cache.cleanupWG.Add(1)
	go cache.cleanupRoutine()

	cache.loadSize()

	return cache, nil
}

func (c *SQLiteCache) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER,
		created_at INTEGER NOT NULL,
		accessed_at INTEGER NOT NULL,
		size INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expires_at ON cache_entries(expires_at) WHERE expires_at > 0;
	CREATE INDEX IF NOT EXISTS idx_accessed_at ON cache_entries(accessed_at);
	`

	_, err := c.db.Exec(query)
	return err
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
	SELECT value FROM cache_entries
	WHERE key = ? AND (expires_at = 0 OR expires_at > ?)
	`

	var value []byte
	now := time.Now().UnixNano()

	err := c.db.QueryRowContext(ctx, query, key, now).Scan(&value)
	if err == sql.ErrNoRows {
		atomic.AddInt64(&c.stats.Misses, 1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.Unknown, "failed to get cache entry")
	}

	if _, err := c.db.ExecContext(ctx, `UPDATE cache_entries SET accessed_at = ? WHERE key = ?`, now, key); err != nil {
		logging.GetLogger().Warn(ctx, "Failed to update cache access time: %v", err)
	}

	atomic.AddInt64(&c.stats.Hits, 1)
	c.mu.Lock()
	c.stats.LastAccess = time.Now()
	c.mu.Unlock()

	return value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	} else if c.config.DefaultTTL > 0 {
		expiresAt = now.Add(c.config.DefaultTTL).UnixNano()
	}

	size := int64(len(value))

	var existingSize int64
	err := c.db.QueryRowContext(ctx, `SELECT size FROM cache_entries WHERE key = ?`, key).Scan(&existingSize)
	exists := err == nil

	if c.config.MaxSize > 0 {
		needed := size
		if exists {
			needed = size - existingSize
		}
		if atomic.LoadInt64(&c.stats.Size)+needed > c.config.MaxSize {
			if err := c.evictEntries(ctx, needed); err != nil {
				return errors.Wrap(err, errors.Unknown, "failed to evict cache entries")
			}
		}
	}

	query := `
	INSERT OR REPLACE INTO cache_entries (key, value, expires_at, created_at, accessed_at, size)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := c.db.ExecContext(ctx, query, key, value, expiresAt, now.UnixNano(), now.UnixNano(), size); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to set cache entry")
	}

	atomic.AddInt64(&c.stats.Sets, 1)
	if exists {
		atomic.AddInt64(&c.stats.Size, size-existingSize)
	} else {
		atomic.AddInt64(&c.stats.Size, size)
	}
	c.mu.Lock()
	c.stats.LastAccess = now
	c.mu.Unlock()

	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	var size int64
	err := c.db.QueryRowContext(ctx, `SELECT size FROM cache_entries WHERE key = ?`, key).Scan(&size)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, errors.Unknown, "failed to get entry size")
	}

	result, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to delete cache entry")
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		atomic.AddInt64(&c.stats.Deletes, 1)
		atomic.AddInt64(&c.stats.Size, -size)
	}

	return nil
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to clear cache")
	}

	atomic.StoreInt64(&c.stats.Hits, 0)
	atomic.StoreInt64(&c.stats.Misses, 0)
	atomic.StoreInt64(&c.stats.Sets, 0)
	atomic.StoreInt64(&c.stats.Deletes, 0)
	atomic.StoreInt64(&c.stats.Size, 0)

	if _, err := c.db.Exec("VACUUM"); err != nil {
		logging.GetLogger().Warn(ctx, "Failed to vacuum cache database: %v", err)
	}

	return nil
}

func (c *SQLiteCache) Stats() CacheStats {
	c.mu.RLock()
	lastAccess := c.stats.LastAccess
	c.mu.RUnlock()

	return CacheStats{
		Hits:       atomic.LoadInt64(&c.stats.Hits),
		Misses:     atomic.LoadInt64(&c.stats.Misses),
		Sets:       atomic.LoadInt64(&c.stats.Sets),
		Deletes:    atomic.LoadInt64(&c.stats.Deletes),
		Size:       atomic.LoadInt64(&c.stats.Size),
		MaxSize:    c.config.MaxSize,
		LastAccess: lastAccess,
	}
}

func (c *SQLiteCache) Close() error {
	close(c.closeChan)
	c.cleanupWG.Wait()
	return c.db.Close()
}

// evictEntries removes the least recently accessed rows until neededSpace
// fits under MaxSize.
func (c *SQLiteCache) evictEntries(ctx context.Context, neededSpace int64) error {
	for atomic.LoadInt64(&c.stats.Size)+neededSpace > c.config.MaxSize {
		var oldestKey string
		var oldestSize int64
		err := c.db.QueryRowContext(ctx,
			`SELECT key, size FROM cache_entries ORDER BY accessed_at ASC LIMIT 1`).Scan(&oldestKey, &oldestSize)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		result, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, oldestKey)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return nil
		}
		atomic.AddInt64(&c.stats.Size, -oldestSize)
	}
	return nil
}

func (c *SQLiteCache) cleanupRoutine() {
	defer c.cleanupWG.Done()

	ticker := time.NewTicker(time.Minute)
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

func (c *SQLiteCache) cleanupExpired() {
	now := time.Now().UnixNano()

	var expiredSize int64
	sumQuery := `SELECT COALESCE(SUM(size), 0) FROM cache_entries WHERE expires_at > 0 AND expires_at < ?`
	if err := c.db.QueryRow(sumQuery, now).Scan(&expiredSize); err != nil {
		logging.GetLogger().Warn(context.Background(), "Failed to measure expired cache entries: %v", err)
		return
	}
	if expiredSize == 0 {
		return
	}

	result, err := c.db.Exec(`DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at < ?`, now)
	if err != nil {
		logging.GetLogger().Warn(context.Background(), "Failed to cleanup expired cache entries: %v", err)
		return
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		atomic.AddInt64(&c.stats.Size, -expiredSize)
	}
}

func (c *SQLiteCache) loadSize() {
	var totalSize int64
	if err := c.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM cache_entries`).Scan(&totalSize); err != nil {
		logging.GetLogger().Warn(context.Background(), "Failed to load cache size: %v", err)
		return
	}
	atomic.StoreInt64(&c.stats.Size, totalSize)
}
