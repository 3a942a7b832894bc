package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/utils"
)

// OpenAILLM implements the core.LLM interface for OpenAI's models.
type OpenAILLM struct {
	*core.BaseLLM
	apiKey string
}

// OpenAIOption is a functional option for configuring the OpenAI provider.
type OpenAIOption func(*OpenAIConfig)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	baseURL string
	apiKey  string
	headers map[string]string
	timeout time.Duration
}

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) OpenAIOption {
	return func(c *OpenAIConfig) { c.apiKey = apiKey }
}

// WithOpenAIBaseURL sets the base URL.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIConfig) { c.baseURL = baseURL }
}

// WithOpenAITimeout sets the request timeout.
func WithOpenAITimeout(timeout time.Duration) OpenAIOption {
	return func(c *OpenAIConfig) { c.timeout = timeout }
}

// WithHeader sets a custom header.
func WithHeader(key, value string) OpenAIOption {
	return func(c *OpenAIConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// NewOpenAILLM creates a new OpenAILLM instance with functional options.
func NewOpenAILLM(modelID core.ModelID, opts ...OpenAIOption) (*OpenAILLM, error) {
	config := &OpenAIConfig{
		baseURL: "https://api.openai.com", // default
		timeout: 60 * time.Second,
		headers: make(map[string]string),
	}

	for _, opt := range opts {
		opt(config)
	}

	// Environment variable fallback for API key
	if config.apiKey == "" {
		config.apiKey = os.Getenv("OPENAI_API_KEY")
	}

	// API key validation - required for the official OpenAI API endpoint
	if config.apiKey == "" && config.baseURL == "https://api.openai.com" {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "OpenAI API key is required for api.openai.com"),
			errors.Fields{"env_var": "OPENAI_API_KEY"})
	}

	endpointCfg := &core.EndpointConfig{
		BaseURL:    config.baseURL,
		Path:       "/v1/chat/completions",
		Headers:    config.headers,
		TimeoutSec: int(config.timeout.Seconds()),
	}

	if config.apiKey != "" {
		endpointCfg.Headers["Authorization"] = "Bearer " + config.apiKey
	}
	endpointCfg.Headers["Content-Type"] = "application/json"

	capabilities := []core.Capability{
		core.CapabilityCompletion,
		core.CapabilityChat,
		core.CapabilityJSON,
		core.CapabilityEmbedding,
	}

	return &OpenAILLM{
		BaseLLM: core.NewBaseLLM("openai", modelID, capabilities, endpointCfg),
		apiKey:  config.apiKey,
	}, nil
}

// Request/response structures for the Chat Completions API.
type chatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []chatCompletionMessage `json:"messages"`
	Temperature    *float64                `json:"temperature,omitempty"`
	MaxTokens      *int                    `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat         `json:"response_format,omitempty"`
	TopP           *float64                `json:"top_p,omitempty"`
	Stop           []string                `json:"stop,omitempty"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Model   string          `json:"model"`
	Choices []chatChoice    `json:"choices"`
	Usage   completionUsage `json:"usage"`
}

type chatChoice struct {
	Index        int                   `json:"index"`
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type responseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// Request/response structures for the Embeddings API.
type embeddingRequest struct {
	Input          interface{} `json:"input"` // string or []string
	Model          string      `json:"model"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  completionUsage `json:"usage"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// Generate implements the core.LLM interface.
func (o *OpenAILLM) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	opts := core.NewGenerateOptions()
	for _, opt := range options {
		opt(opts)
	}

	request := &chatCompletionRequest{
		Model: o.ModelID(),
		Messages: []chatCompletionMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens:   &opts.MaxTokens,
		Temperature: &opts.Temperature,
	}

	if opts.TopP > 0 {
		request.TopP = &opts.TopP
	}
	if len(opts.Stop) > 0 {
		request.Stop = opts.Stop
	}

	response, err := o.makeRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.New(errors.InvalidResponse, "no choices returned from OpenAI API")
	}

	usage := &core.TokenInfo{
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
	}

	logInteraction(ctx, prompt, response.Choices[0].Message.Content, usage)

	return &core.LLMResponse{
		Content: response.Choices[0].Message.Content,
		Usage:   usage,
		Metadata: map[string]interface{}{
			"finish_reason": response.Choices[0].FinishReason,
			"id":            response.ID,
			"model":         response.Model,
		},
	}, nil
}

// GenerateWithJSON implements the core.LLM interface.
func (o *OpenAILLM) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	opts := core.NewGenerateOptions()
	for _, opt := range options {
		opt(opts)
	}

	request := &chatCompletionRequest{
		Model: o.ModelID(),
		Messages: []chatCompletionMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens:   &opts.MaxTokens,
		Temperature: &opts.Temperature,
		ResponseFormat: &responseFormat{
			Type: "json_object",
		},
	}

	if opts.TopP > 0 {
		request.TopP = &opts.TopP
	}

	response, err := o.makeRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.New(errors.InvalidResponse, "no choices returned from OpenAI API")
	}

	return utils.ParseJSONResponse(response.Choices[0].Message.Content)
}

// CreateEmbedding implements the core.LLM interface.
func (o *OpenAILLM) CreateEmbedding(ctx context.Context, input string, options ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	opts := core.NewEmbeddingOptions()
	for _, opt := range options {
		opt(opts)
	}

	model := string(core.ModelOpenAIEmbedSmall)
	if opts.Model != "" {
		model = opts.Model
	}

	request := &embeddingRequest{
		Input:          input,
		Model:          model,
		EncodingFormat: "float",
	}

	response, err := o.makeEmbeddingRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, errors.New(errors.InvalidResponse, "no embeddings returned from OpenAI API")
	}

	// Convert []float64 to []float32
	embedding := make([]float32, len(response.Data[0].Embedding))
	for i, v := range response.Data[0].Embedding {
		embedding[i] = float32(v)
	}

	return &core.EmbeddingResult{
		Vector:     embedding,
		TokenCount: response.Usage.TotalTokens,
		Metadata: map[string]interface{}{
			"model": response.Model,
		},
	}, nil
}

// CreateEmbeddings implements the core.LLM interface.
func (o *OpenAILLM) CreateEmbeddings(ctx context.Context, inputs []string, options ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	opts := core.NewEmbeddingOptions()
	for _, opt := range options {
		opt(opts)
	}

	model := string(core.ModelOpenAIEmbedSmall)
	if opts.Model != "" {
		model = opts.Model
	}

	request := &embeddingRequest{
		Input:          inputs,
		Model:          model,
		EncodingFormat: "float",
	}

	response, err := o.makeEmbeddingRequest(ctx, request)
	if err != nil {
		return &core.BatchEmbeddingResult{Error: err}, nil
	}

	results := make([]core.EmbeddingResult, len(response.Data))
	for i, data := range response.Data {
		embedding := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			embedding[j] = float32(v)
		}

		tokenCount := 0
		if len(inputs) > 0 {
			tokenCount = response.Usage.TotalTokens / len(inputs) // Approximate per input
		}

		results[i] = core.EmbeddingResult{
			Vector:     embedding,
			TokenCount: tokenCount,
			Metadata: map[string]interface{}{
				"model": response.Model,
				"index": data.Index,
			},
		}
	}

	return &core.BatchEmbeddingResult{Embeddings: results}, nil
}

func (o *OpenAILLM) makeRequest(ctx context.Context, request *chatCompletionRequest) (*chatCompletionResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to marshal request body"),
			errors.Fields{"model": o.ModelID()})
	}

	url := o.GetEndpointConfig().BaseURL + "/v1/chat/completions"
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
			errors.Wrap(err, errors.LLMGenerationFailed, "failed to send request"),
			errors.Fields{"model": o.ModelID()})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.WithFields(
			errors.New(errors.RateLimitExceeded, "OpenAI API rate limit exceeded"),
			errors.Fields{"model": o.ModelID()})
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithFields(
			errors.New(errors.LLMGenerationFailed, "API request failed"),
			errors.Fields{
				"model":         o.ModelID(),
				"status_code":   resp.StatusCode,
				"response_body": string(body),
			})
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal response")
	}

	return &response, nil
}

func (o *OpenAILLM) makeEmbeddingRequest(ctx context.Context, request *embeddingRequest) (*embeddingResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to marshal embedding request")
	}

	url := o.GetEndpointConfig().BaseURL + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to create request")
	}

	for key, value := range o.GetEndpointConfig().Headers {
		req.Header.Set(key, value)
	}

	resp, err := o.GetHTTPClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.LLMGenerationFailed, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithFields(
			errors.New(errors.LLMGenerationFailed, "embedding request failed"),
			errors.Fields{
				"model":       request.Model,
				"status_code": resp.StatusCode,
			})
	}

	var response embeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to unmarshal embedding response")
	}

	return &response, nil
}
