package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/tekstfix/pkg/core"
)

func newTestOpenAILLM(t *testing.T, serverURL string) *OpenAILLM {
	t.Helper()
	llm, err := NewOpenAILLM(core.ModelOpenAIGPT4o,
		WithAPIKey("test-key"),
		WithOpenAIBaseURL(serverURL))
	require.NoError(t, err)
	return llm
}

func TestOpenAIGenerate(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		response    interface{}
		expectError bool
		errorCheck  func(t *testing.T, err error)
	}{
		{
			name:       "Successful generation",
			statusCode: http.StatusOK,
			response: chatCompletionResponse{
				ID:    "chatcmpl-123",
				Model: "gpt-4o",
				Choices: []chatChoice{
					{Message: chatCompletionMessage{Role: "assistant", Content: "Rettet tekst"}, FinishReason: "stop"},
				},
				Usage: completionUsage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
			},
		},
		{
			name:        "Rate limited",
			statusCode:  http.StatusTooManyRequests,
			response:    map[string]string{"error": "rate limit"},
			expectError: true,
		},
		{
			name:        "Empty choices",
			statusCode:  http.StatusOK,
			response:    chatCompletionResponse{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req chatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "gpt-4o", req.Model)
				require.Len(t, req.Messages, 1)
				assert.Equal(t, "user", req.Messages[0].Role)

				w.WriteHeader(tt.statusCode)
				require.NoError(t, json.NewEncoder(w).Encode(tt.response))
			}))
			defer server.Close()

			llm := newTestOpenAILLM(t, server.URL)
			resp, err := llm.Generate(context.Background(), "Ret denne tekst")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Rettet tekst", resp.Content)
			assert.Equal(t, 16, resp.Usage.TotalTokens)
		})
	}
}

func TestOpenAIGenerateWithJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		resp := chatCompletionResponse{
			Choices: []chatChoice{
				{Message: chatCompletionMessage{Content: `{"feedback": "Teksten er fin"}`}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	llm := newTestOpenAILLM(t, server.URL)
	result, err := llm.GenerateWithJSON(context.Background(), "Analyser")
	require.NoError(t, err)
	assert.Equal(t, "Teksten er fin", result["feedback"])
}

func TestOpenAICreateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		resp := embeddingResponse{
			Data:  []embeddingData{{Embedding: []float64{0.5, 0.25}}},
			Model: "text-embedding-3-small",
			Usage: completionUsage{TotalTokens: 3},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	llm := newTestOpenAILLM(t, server.URL)
	result, err := llm.CreateEmbedding(context.Background(), "stilguide")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, result.Vector)
	assert.Equal(t, 3, result.TokenCount)
}

func TestOpenAICreateEmbeddings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{
			Data: []embeddingData{
				{Index: 0, Embedding: []float64{1, 0}},
				{Index: 1, Embedding: []float64{0, 1}},
			},
			Usage: completionUsage{TotalTokens: 8},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	llm := newTestOpenAILLM(t, server.URL)
	result, err := llm.CreateEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, result.Error)
	require.Len(t, result.Embeddings, 2)
	assert.Equal(t, []float32{0, 1}, result.Embeddings[1].Vector)
}

func TestNewOpenAILLMRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAILLM(core.ModelOpenAIGPT4o)
	assert.Error(t, err)

	// Alternative endpoints do not require a key
	llm, err := NewOpenAILLM(core.ModelOpenAIGPT4o, WithOpenAIBaseURL("http://localhost:8080"))
	require.NoError(t, err)
	assert.Equal(t, "openai", llm.ProviderName())
}
