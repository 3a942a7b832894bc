package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// CachedLLM wraps a core.LLM with response caching. Generate and
// GenerateWithJSON results are stored by request fingerprint; embedding
// requests pass through uncached.
type CachedLLM struct {
	core.LLM
	cache        Cache
	keyGenerator *KeyGenerator
	ttl          time.Duration
}

// NewCachedLLM wraps the given LLM with a cache.
func NewCachedLLM(llm core.LLM, cache Cache, ttl time.Duration) *CachedLLM {
	return &CachedLLM{
		LLM:          llm,
		cache:        cache,
		keyGenerator: NewKeyGenerator(""),
		ttl:          ttl,
	}
}

// Generate implements the core.LLM interface with a cache in front.
func (c *CachedLLM) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	key := c.keyGenerator.GenerateKey(c.ModelID(), prompt, options)

	if cached, found, err := c.cache.Get(ctx, key); found && err == nil {
		var response core.LLMResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			logging.GetLogger().Debug(ctx, "Cache hit for key %s", key)
			if response.Metadata == nil {
				response.Metadata = make(map[string]interface{})
			}
			response.Metadata["cache_hit"] = true
			return &response, nil
		}
	}

	response, err := c.LLM.Generate(ctx, prompt, options...)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(response); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logging.GetLogger().Warn(ctx, "Failed to cache response: %v", err)
		}
	}

	return response, nil
}

// GenerateWithJSON implements the core.LLM interface with a cache in front.
func (c *CachedLLM) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	key := c.keyGenerator.GenerateJSONKey(c.ModelID(), prompt, options)

	if cached, found, err := c.cache.Get(ctx, key); found && err == nil {
		var result map[string]interface{}
		if err := json.Unmarshal(cached, &result); err == nil {
			logging.GetLogger().Debug(ctx, "Cache hit for key %s", key)
			return result, nil
		}
	}

	result, err := c.LLM.GenerateWithJSON(ctx, prompt, options...)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logging.GetLogger().Warn(ctx, "Failed to cache response: %v", err)
		}
	}

	return result, nil
}

// Stats returns statistics for the underlying cache.
func (c *CachedLLM) Stats() CacheStats {
	return c.cache.Stats()
}

// Close closes the underlying cache.
func (c *CachedLLM) Close() error {
	return c.cache.Close()
}
