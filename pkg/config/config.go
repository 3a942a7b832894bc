package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkrogh/tekstfix/pkg/errors"
)

// Config is the top-level configuration for the text correction tool.
type Config struct {
	// LLM provider used for corrections
	LLM LLMConfig `yaml:"llm" validate:"required"`

	// Which aspects of the text to analyze
	Analysis AnalysisConfig `yaml:"analysis,omitempty"`

	// Iterative correction loop settings
	Agentic AgenticConfig `yaml:"agentic,omitempty"`

	// Style guide lookup settings
	Knowledge KnowledgeConfig `yaml:"knowledge,omitempty"`

	// Response cache settings
	Cache CacheConfig `yaml:"cache,omitempty"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// LLMConfig holds provider selection and generation parameters.
type LLMConfig struct {
	// Provider name: "claude", "openai" or "ollama"
	Provider string `yaml:"provider" validate:"required,oneof=claude openai ollama"`

	// Model identifier for the selected provider
	ModelID string `yaml:"model_id" validate:"required"`

	// API key, falls back to provider-specific environment variables
	APIKey string `yaml:"api_key,omitempty"`

	// Endpoint override for local providers
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// Generation parameters
	Generation GenerationConfig `yaml:"generation,omitempty"`
}

// GenerationConfig holds parameters for text generation.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens" validate:"min=1"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
}

// AnalysisConfig selects which aspects of the text are corrected.
type AnalysisConfig struct {
	Grammar   bool `yaml:"grammar"`
	Spelling  bool `yaml:"spelling"`
	Structure bool `yaml:"structure"`
	Clarity   bool `yaml:"clarity"`

	// Number of documents processed concurrently
	Concurrency int `yaml:"concurrency" validate:"min=1"`

	// Number of retry attempts for failed LLM calls
	MaxRetries int `yaml:"max_retries" validate:"min=0"`

	// Overwrite input files instead of writing _corrected copies
	Overwrite bool `yaml:"overwrite"`
}

// AgenticConfig controls the iterative analyze-verify loop.
type AgenticConfig struct {
	// Maximum number of correction iterations
	MaxIterations int `yaml:"max_iterations" validate:"min=1,max=10"`

	// Quality score (0-100) at which the loop stops early
	QualityThreshold int `yaml:"quality_threshold" validate:"min=0,max=100"`
}

// KnowledgeConfig configures the style guide lookup.
type KnowledgeConfig struct {
	// Path to the style guide markdown file; empty disables lookup
	StyleGuidePath string `yaml:"style_guide_path,omitempty"`

	// Guideline count at and below the short-text word threshold
	MinGuidelines int `yaml:"min_guidelines" validate:"min=1"`

	// Guideline count at and above the long-text word threshold
	MaxGuidelines int `yaml:"max_guidelines" validate:"min=1"`

	// Embedding provider: "openai" or "ollama"
	EmbeddingProvider string `yaml:"embedding_provider,omitempty" validate:"omitempty,oneof=openai ollama"`

	// Embedding model identifier
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
}

// CacheConfig configures LLM response caching.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Cache backend: "memory" or "sqlite"
	Type string `yaml:"type,omitempty" validate:"omitempty,oneof=memory sqlite"`

	// SQLite database path
	Path string `yaml:"path,omitempty"`

	// Time-to-live for cached responses
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Severity level: DEBUG, INFO, WARN, ERROR or FATAL
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Optional log file; entries are written as JSON lines
	File string `yaml:"file,omitempty"`
}

// Default model IDs per provider.
const (
	DefaultClaudeModel = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel = "gpt-4o"
	DefaultOllamaModel = "llama3:8b"
)

// DefaultConfig returns a configuration with sensible defaults. All analysis
// aspects start enabled.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "claude",
			ModelID:  DefaultClaudeModel,
			Generation: GenerationConfig{
				MaxTokens:   4096,
				Temperature: 0.3,
			},
		},
		Analysis: AnalysisConfig{
			Grammar:     true,
			Spelling:    true,
			Structure:   true,
			Clarity:     true,
			Concurrency: 4,
			MaxRetries:  3,
		},
		Agentic: AgenticConfig{
			MaxIterations:    3,
			QualityThreshold: 90,
		},
		Knowledge: KnowledgeConfig{
			MinGuidelines:     5,
			MaxGuidelines:     15,
			EmbeddingProvider: "openai",
		},
		Cache: CacheConfig{
			Enabled: false,
			Type:    "memory",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// Load reads a configuration file, applies environment overrides and
// validates the result. An empty path returns the defaults with environment
// overrides applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.ResourceNotFound, "failed to read config file"),
				errors.Fields{"path": path})
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.InvalidInput, "failed to parse config file"),
				errors.Fields{"path": path})
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvironment applies environment variable overrides. The variables
// match the original shell interface of the tool: LLM_PROVIDER selects the
// provider, CLAUDE_MODEL and OPENAI_MODEL override model IDs, and the API
// keys come from CLAUDE_API_KEY or OPENAI_API_KEY.
func (c *Config) applyEnvironment() {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	c.applyProviderDefaults()

	if path := os.Getenv("STYLE_GUIDE_PATH"); path != "" {
		c.Knowledge.StyleGuidePath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// applyProviderDefaults fills in the model and API key for the active
// provider from environment variables and built-in defaults.
func (c *Config) applyProviderDefaults() {
	switch c.LLM.Provider {
	case "claude":
		if model := os.Getenv("CLAUDE_MODEL"); model != "" {
			c.LLM.ModelID = model
		} else if c.LLM.ModelID == "" {
			c.LLM.ModelID = DefaultClaudeModel
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("CLAUDE_API_KEY")
		}
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			c.LLM.ModelID = model
		} else if c.LLM.ModelID == DefaultClaudeModel || c.LLM.ModelID == "" {
			c.LLM.ModelID = DefaultOpenAIModel
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "ollama":
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			c.LLM.ModelID = model
		} else if c.LLM.ModelID == DefaultClaudeModel || c.LLM.ModelID == "" {
			c.LLM.ModelID = DefaultOllamaModel
		}
		if c.LLM.Endpoint == "" {
			c.LLM.Endpoint = os.Getenv("OLLAMA_HOST")
		}
	}
}

// SetProvider switches the active provider, resetting the model and API key
// to the new provider's defaults and environment values.
func (c *Config) SetProvider(provider string) {
	if provider == c.LLM.Provider {
		return
	}
	c.LLM.Provider = provider
	c.LLM.ModelID = ""
	c.LLM.APIKey = ""
	c.applyProviderDefaults()
}

// RequireAPIKey returns an error if the selected provider needs an API key
// that is not configured. The message names the environment variable to set.
func (c *Config) RequireAPIKey() error {
	if c.LLM.Provider == "ollama" {
		return nil
	}
	if c.LLM.APIKey != "" {
		return nil
	}

	envVar := "CLAUDE_API_KEY"
	if c.LLM.Provider == "openai" {
		envVar = "OPENAI_API_KEY"
	}
	return errors.WithFields(
		errors.New(errors.ValidationFailed, "missing API key for provider"),
		errors.Fields{"provider": c.LLM.Provider, "env_var": envVar})
}
