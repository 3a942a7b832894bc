package commands

import (
	"github.com/mkrogh/tekstfix/pkg/cache"
	"github.com/mkrogh/tekstfix/pkg/config"
	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/knowledge"
	"github.com/mkrogh/tekstfix/pkg/llms"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// commonFlags are shared by the analyze and agent commands.
type commonFlags struct {
	configPath string
	provider   string
	model      string
	styleGuide string
	overwrite  bool

	noGrammar   bool
	noSpelling  bool
	noStructure bool
	noClarity   bool
}

// loadConfig reads the configuration and applies command line overrides.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	if f.provider != "" {
		cfg.SetProvider(f.provider)
	}
	if f.model != "" {
		cfg.LLM.ModelID = f.model
	}
	if f.styleGuide != "" {
		cfg.Knowledge.StyleGuidePath = f.styleGuide
	}
	if f.overwrite {
		cfg.Analysis.Overwrite = true
	}
	if f.noGrammar {
		cfg.Analysis.Grammar = false
	}
	if f.noSpelling {
		cfg.Analysis.Spelling = false
	}
	if f.noStructure {
		cfg.Analysis.Structure = false
	}
	if f.noClarity {
		cfg.Analysis.Clarity = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging configures the global logger from the config.
func setupLogging(cfg *config.Config) error {
	severity := logging.ParseSeverity(cfg.Logging.Level)

	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.Logging.File != "" {
		fileOutput, err := logging.NewFileOutput(cfg.Logging.File)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOutput)
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: severity,
		Outputs:  outputs,
	}))
	return nil
}

// buildLLM creates the configured LLM, wrapped in a response cache when
// caching is enabled.
func buildLLM(cfg *config.Config) (core.LLM, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	provider := cfg.LLM.Provider
	if provider == "ollama" && cfg.LLM.Endpoint != "" {
		provider = "ollama:" + cfg.LLM.Endpoint
	}

	llm, err := llms.NewLLM(provider, cfg.LLM.APIKey, core.ModelID(cfg.LLM.ModelID))
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return llm, nil
	}

	responseCache, err := cache.NewCache(cache.CacheConfig{
		Type:       cfg.Cache.Type,
		DefaultTTL: cfg.Cache.TTL,
		SQLiteConfig: cache.SQLiteConfig{
			Path:      cfg.Cache.Path,
			EnableWAL: true,
		},
	})
	if err != nil {
		return nil, err
	}

	return cache.NewCachedLLM(llm, responseCache, cfg.Cache.TTL), nil
}

// buildKnowledgeBase creates the style guide knowledge base when one is
// configured. Claude has no embedding API, so the embedder is a separate
// OpenAI or Ollama model.
func buildKnowledgeBase(cfg *config.Config) (*knowledge.KnowledgeBase, error) {
	if cfg.Knowledge.StyleGuidePath == "" {
		return nil, nil
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return knowledge.New(cfg.Knowledge.StyleGuidePath, embedder,
		cfg.Knowledge.MinGuidelines, cfg.Knowledge.MaxGuidelines)
}

func buildEmbedder(cfg *config.Config) (core.LLM, error) {
	switch cfg.Knowledge.EmbeddingProvider {
	case "ollama":
		model := cfg.Knowledge.EmbeddingModel
		if model == "" {
			model = string(core.ModelOllamaNomicEmbed)
		}
		return llms.NewOllamaLLM(cfg.LLM.Endpoint, core.ModelID(model))
	case "openai", "":
		model := cfg.Knowledge.EmbeddingModel
		if model == "" {
			model = string(core.ModelOpenAIEmbedSmall)
		}
		opts := []llms.OpenAIOption{}
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey != "" {
			opts = append(opts, llms.WithAPIKey(cfg.LLM.APIKey))
		}
		return llms.NewOpenAILLM(core.ModelID(model), opts...)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unsupported embedding provider"),
			errors.Fields{"provider": cfg.Knowledge.EmbeddingProvider})
	}
}
