package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/tekstfix/pkg/core"
)

// countingLLM records how many times each method is invoked.
type countingLLM struct {
	*core.BaseLLM
	generateCalls int
	jsonCalls     int
}

func newCountingLLM() *countingLLM {
	return &countingLLM{
		BaseLLM: core.NewBaseLLM("fake", "fake-model", []core.Capability{core.CapabilityCompletion, core.CapabilityJSON}, nil),
	}
}

func (f *countingLLM) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	f.generateCalls++
	return &core.LLMResponse{Content: "svar: " + prompt}, nil
}

func (f *countingLLM) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	f.jsonCalls++
	return map[string]interface{}{"corrected_text": prompt}, nil
}

func (f *countingLLM) CreateEmbedding(ctx context.Context, input string, options ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	return &core.EmbeddingResult{Vector: []float32{1}}, nil
}

func (f *countingLLM) CreateEmbeddings(ctx context.Context, inputs []string, options ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	return &core.BatchEmbeddingResult{}, nil
}

func TestCachedLLMGenerate(t *testing.T) {
	memCache, err := NewMemoryCache(CacheConfig{})
	require.NoError(t, err)

	fake := newCountingLLM()
	cached := NewCachedLLM(fake, memCache, time.Hour)
	defer cached.Close()

	ctx := context.Background()

	resp1, err := cached.Generate(ctx, "Hej verden")
	require.NoError(t, err)
	assert.Equal(t, "svar: Hej verden", resp1.Content)
	assert.Equal(t, 1, fake.generateCalls)

	resp2, err := cached.Generate(ctx, "Hej verden")
	require.NoError(t, err)
	assert.Equal(t, resp1.Content, resp2.Content)
	assert.Equal(t, 1, fake.generateCalls, "second call must be served from cache")
	assert.Equal(t, true, resp2.Metadata["cache_hit"])

	_, err = cached.Generate(ctx, "Andet dokument")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.generateCalls)
}

func TestCachedLLMGenerateWithJSON(t *testing.T) {
	memCache, err := NewMemoryCache(CacheConfig{})
	require.NoError(t, err)

	fake := newCountingLLM()
	cached := NewCachedLLM(fake, memCache, time.Hour)
	defer cached.Close()

	ctx := context.Background()

	result1, err := cached.GenerateWithJSON(ctx, "Ret teksten")
	require.NoError(t, err)
	assert.Equal(t, "Ret teksten", result1["corrected_text"])
	assert.Equal(t, 1, fake.jsonCalls)

	result2, err := cached.GenerateWithJSON(ctx, "Ret teksten")
	require.NoError(t, err)
	assert.Equal(t, result1, result2)
	assert.Equal(t, 1, fake.jsonCalls)

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats.Hits)
}
