package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/utils"
)

// OllamaLLM implements the core.LLM interface for a local Ollama server.
type OllamaLLM struct {
	*core.BaseLLM
}

// Embedding-capable model families served by Ollama.
var ollamaEmbeddingModels = []string{
	"nomic-embed-text",
	"mxbai-embed-large",
	"all-minilm",
	"snowflake-arctic-embed",
}

func supportsOllamaEmbedding(modelID string) bool {
	for _, m := range ollamaEmbeddingModels {
		if strings.HasPrefix(modelID, m) {
			return true
		}
	}
	return false
}

// NewOllamaLLM creates a new OllamaLLM instance. An empty endpoint defaults
// to the standard local Ollama address.
func NewOllamaLLM(endpoint string, modelID core.ModelID) (*OllamaLLM, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}

	endpointCfg := &core.EndpointConfig{
		BaseURL: endpoint,
		Path:    "/api/generate",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		TimeoutSec: 120,
	}
	if err := core.ValidateEndpointConfig(endpointCfg); err != nil {
		return nil, err
	}

	capabilities := []core.Capability{
		core.CapabilityCompletion,
		core.CapabilityJSON,
	}
	if supportsOllamaEmbedding(string(modelID)) {
		capabilities = append(capabilities, core.CapabilityEmbedding)
	}

	return &OllamaLLM{
		BaseLLM: core.NewBaseLLM("ollama", modelID, capabilities, endpointCfg),
	}, nil
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64  `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate implements the core.LLM interface.
func (o *OllamaLLM) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	return o.generate(ctx, prompt, "", options...)
}

// GenerateWithJSON implements the core.LLM interface. Ollama enforces JSON
// output server-side when format is set.
func (o *OllamaLLM) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	response, err := o.generate(ctx, prompt, "json", options...)
	if err != nil {
		return nil, err
	}
	return utils.ParseJSONResponse(response.Content)
}

func (o *OllamaLLM) generate(ctx context.Context, prompt string, format string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	opts := core.NewGenerateOptions()
	for _, opt := range options {
		opt(opts)
	}

	reqBody := ollamaRequest{
		Model:  o.ModelID(),
		Prompt: prompt,
		Stream: false,
		Format: format,
		Options: &ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
			TopP:        opts.TopP,
			Stop:        opts.Stop,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to marshal request body")
	}

	url := fmt.Sprintf("%s%s", o.GetEndpointConfig().BaseURL, o.GetEndpointConfig().Path)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to create request")
	}
	for key, value := range o.GetEndpointConfig().Headers {
		req.Header.Set(key, value)
	}

	resp, err := o.GetHTTPClient().Do(req)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.LLMGenerationFailed, "failed to send request to Ollama"),
			errors.Fields{"model": o.ModelID()})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithFields(
			errors.New(errors.LLMGenerationFailed, "Ollama request failed"),
			errors.Fields{
				"status_code":   resp.StatusCode,
				"response_body": string(body),
			})
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal response")
	}

	usage := &core.TokenInfo{
		PromptTokens:     ollamaResp.PromptEvalCount,
		CompletionTokens: ollamaResp.EvalCount,
		TotalTokens:      ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
	}

	logInteraction(ctx, prompt, ollamaResp.Response, usage)

	return &core.LLMResponse{Content: ollamaResp.Response, Usage: usage}, nil
}

// CreateEmbedding implements the core.LLM interface.
func (o *OllamaLLM) CreateEmbedding(ctx context.Context, input string, options ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	opts := core.NewEmbeddingOptions()
	for _, opt := range options {
		opt(opts)
	}

	model := o.ModelID()
	if opts.Model != "" {
		model = opts.Model
	}
	if !supportsOllamaEmbedding(model) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "model does not support embeddings"),
			errors.Fields{"model": model})
	}

	reqBody := ollamaEmbeddingRequest{
		Model:  model,
		Prompt: input,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to marshal embedding request")
	}

	url := fmt.Sprintf("%s/api/embeddings", o.GetEndpointConfig().BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.GetHTTPClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to send embedding request to Ollama")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithFields(
			errors.New(errors.LLMGenerationFailed, "Ollama embedding request failed"),
			errors.Fields{
				"status_code": resp.StatusCode,
				"model":       model,
			})
	}

	var embResp ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal embedding response")
	}
	if len(embResp.Embedding) == 0 {
		return nil, errors.New(errors.InvalidResponse, "empty embedding returned from Ollama")
	}

	vector := make([]float32, len(embResp.Embedding))
	for i, v := range embResp.Embedding {
		vector[i] = float32(v)
	}

	return &core.EmbeddingResult{
		Vector: vector,
		Metadata: map[string]interface{}{
			"model": model,
		},
	}, nil
}

// CreateEmbeddings implements the core.LLM interface. The embeddings endpoint
// takes one prompt per call, so inputs are processed sequentially.
func (o *OllamaLLM) CreateEmbeddings(ctx context.Context, inputs []string, options ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	results := make([]core.EmbeddingResult, 0, len(inputs))
	for i, input := range inputs {
		result, err := o.CreateEmbedding(ctx, input, options...)
		if err != nil {
			return &core.BatchEmbeddingResult{
				Embeddings: results,
				Error:      err,
				ErrorIndex: i,
			}, nil
		}
		results = append(results, *result)
	}
	return &core.BatchEmbeddingResult{Embeddings: results}, nil
}
