package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/tekstfix/pkg/core"
)

func TestNewLLM(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		apiKey      string
		modelID     core.ModelID
		expectError bool
		providerTag string
	}{
		{
			name:        "Claude provider",
			provider:    "claude",
			apiKey:      "test-key",
			modelID:     core.ModelAnthropicSonnet,
			providerTag: "anthropic",
		},
		{
			name:        "OpenAI provider",
			provider:    "openai",
			apiKey:      "test-key",
			modelID:     core.ModelOpenAIGPT4o,
			providerTag: "openai",
		},
		{
			name:        "Ollama provider",
			provider:    "ollama",
			modelID:     core.ModelOllamaLlama3_8B,
			providerTag: "ollama",
		},
		{
			name:        "Ollama with endpoint",
			provider:    "ollama:http://remote:11434",
			modelID:     core.ModelOllamaMistral7B,
			providerTag: "ollama",
		},
		{
			name:        "Unknown provider",
			provider:    "gemini",
			modelID:     "gemini-pro",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := NewLLM(tt.provider, tt.apiKey, tt.modelID)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.providerTag, llm.ProviderName())
			assert.Equal(t, string(tt.modelID), llm.ModelID())
		})
	}
}

func TestNewLLMOllamaEndpoint(t *testing.T) {
	llm, err := NewLLM("ollama:http://remote:11434", "", core.ModelOllamaLlama3_8B)
	require.NoError(t, err)

	ollama, ok := llm.(*OllamaLLM)
	require.True(t, ok)
	assert.Equal(t, "http://remote:11434", ollama.GetEndpointConfig().BaseURL)
}
