package llms

import (
	"context"
	"strings"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// NewLLM creates an LLM instance for the named provider. The provider string
// matches the LLM_PROVIDER configuration value: "claude", "openai" or
// "ollama". An Ollama endpoint other than the default can be given as
// "ollama:http://host:port".
func NewLLM(provider string, apiKey string, modelID core.ModelID) (core.LLM, error) {
	switch {
	case provider == "claude" || provider == "anthropic":
		return NewAnthropicLLM(apiKey, modelID)
	case provider == "openai":
		return NewOpenAILLM(modelID, WithAPIKey(apiKey))
	case provider == "ollama":
		return NewOllamaLLM("", modelID)
	case strings.HasPrefix(provider, "ollama:"):
		endpoint := strings.TrimPrefix(provider, "ollama:")
		return NewOllamaLLM(endpoint, modelID)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unsupported LLM provider"),
			errors.Fields{"provider": provider})
	}
}

// logInteraction records a prompt/completion pair at debug level with the
// token usage attached to the context, so the entry carries the counts.
func logInteraction(ctx context.Context, prompt, completion string, usage *core.TokenInfo) {
	var info *logging.TokenInfo
	if usage != nil {
		info = &logging.TokenInfo{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
		ctx = logging.WithTokenInfo(ctx, info)
	}
	logging.GetLogger().PromptCompletion(ctx, prompt, completion, info)
}
