package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGenerateOptions(t *testing.T) {
	opts := NewGenerateOptions()
	assert.Equal(t, 4096, opts.MaxTokens)
	assert.Equal(t, 0.3, opts.Temperature)
}

func TestGenerateOptionApplication(t *testing.T) {
	opts := NewGenerateOptions()
	for _, opt := range []GenerateOption{
		WithMaxTokens(2048),
		WithTemperature(0.9),
		WithTopP(0.95),
		WithStopSequences("END"),
	} {
		opt(opts)
	}

	assert.Equal(t, 2048, opts.MaxTokens)
	assert.Equal(t, 0.9, opts.Temperature)
	assert.Equal(t, 0.95, opts.TopP)
	assert.Equal(t, []string{"END"}, opts.Stop)
}

func TestBaseLLM(t *testing.T) {
	endpoint := &EndpointConfig{
		BaseURL:    "http://localhost:11434",
		TimeoutSec: 120,
	}
	base := NewBaseLLM("ollama", ModelOllamaLlama3_8B, []Capability{CapabilityCompletion, CapabilityJSON}, endpoint)

	assert.Equal(t, "ollama", base.ProviderName())
	assert.Equal(t, "llama3:8b", base.ModelID())
	assert.True(t, base.HasCapability(CapabilityJSON))
	assert.False(t, base.HasCapability(CapabilityEmbedding))
	assert.Equal(t, endpoint, base.GetEndpointConfig())
	assert.NotNil(t, base.GetHTTPClient())
}

func TestValidateEndpointConfig(t *testing.T) {
	assert.NoError(t, ValidateEndpointConfig(nil))

	err := ValidateEndpointConfig(&EndpointConfig{})
	assert.Error(t, err)

	cfg := &EndpointConfig{BaseURL: "http://localhost:8080"}
	assert.NoError(t, ValidateEndpointConfig(cfg))
	assert.Equal(t, 60, cfg.TimeoutSec)
}
