package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mkrogh/tekstfix/pkg/core"
)

// KeyGenerator generates deterministic cache keys for LLM requests.
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a new cache key generator.
func NewKeyGenerator(prefix string) *KeyGenerator {
	if prefix == "" {
		prefix = "tekstfix_"
	}
	return &KeyGenerator{prefix: prefix}
}

// GenerateKey creates a cache key from LLM request parameters. Identical
// prompts with different generation parameters get distinct keys.
func (g *KeyGenerator) GenerateKey(modelID string, prompt string, options []core.GenerateOption) string {
	opts := core.NewGenerateOptions()
	for _, opt := range options {
		opt(opts)
	}

	keyData := fmt.Sprintf("%s|%s|%s", modelID, strings.TrimSpace(prompt), g.optionsToString(opts))

	h := sha256.New()
	h.Write([]byte(keyData))
	hash := hex.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s%s_%s", g.prefix, modelID, hash[:16])
}

// GenerateJSONKey creates a cache key for JSON-structured requests. The key
// space is separate from plain generation so a cached free-text response is
// never returned where structured output is expected.
func (g *KeyGenerator) GenerateJSONKey(modelID string, prompt string, options []core.GenerateOption) string {
	opts := core.NewGenerateOptions()
	for _, opt := range options {
		opt(opts)
	}

	keyData := fmt.Sprintf("%s|%s|%s", modelID, strings.TrimSpace(prompt), g.optionsToString(opts))

	h := sha256.New()
	h.Write([]byte(keyData))
	hash := hex.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%sjson_%s_%s", g.prefix, modelID, hash[:16])
}

// optionsToString converts generate options to a deterministic string.
func (g *KeyGenerator) optionsToString(config *core.GenerateOptions) string {
	var params []string

	params = append(params, fmt.Sprintf("temp:%.2f", config.Temperature))
	params = append(params, fmt.Sprintf("max:%d", config.MaxTokens))

	if config.TopP > 0 {
		params = append(params, fmt.Sprintf("topp:%.2f", config.TopP))
	}

	if len(config.Stop) > 0 {
		stops := make([]string, len(config.Stop))
		copy(stops, config.Stop)
		sort.Strings(stops)
		params = append(params, fmt.Sprintf("stop:%s", strings.Join(stops, ",")))
	}

	sort.Strings(params)

	return strings.Join(params, "|")
}
