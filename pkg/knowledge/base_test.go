package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/tekstfix/pkg/core"
)

// fakeEmbedder maps texts to fixed vectors by keyword so retrieval order is
// deterministic.
type fakeEmbedder struct {
	*core.BaseLLM
	calls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		BaseLLM: core.NewBaseLLM("fake", "fake-embed", []core.Capability{core.CapabilityEmbedding}, nil),
	}
}

func embed(text string) []float32 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "venlig"):
		return []float32{1, 0}
	case strings.Contains(lower, "dato"):
		return []float32{0, 1}
	default:
		return []float32{0.5, 0.5}
	}
}

func (f *fakeEmbedder) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.LLMResponse, error) {
	return &core.LLMResponse{Content: ""}, nil
}

func (f *fakeEmbedder) GenerateWithJSON(ctx context.Context, prompt string, options ...core.GenerateOption) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, input string, options ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	f.calls++
	return &core.EmbeddingResult{Vector: embed(input)}, nil
}

func (f *fakeEmbedder) CreateEmbeddings(ctx context.Context, inputs []string, options ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	f.calls++
	results := make([]core.EmbeddingResult, len(inputs))
	for i, input := range inputs {
		results[i] = core.EmbeddingResult{Vector: embed(input)}
	}
	return &core.BatchEmbeddingResult{Embeddings: results}, nil
}

func writeGuide(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "styleguide.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRequiresExistingFile(t *testing.T) {
	_, err := New("", newFakeEmbedder(), 5, 15)
	assert.Error(t, err)

	_, err = New("/nonexistent/guide.md", newFakeEmbedder(), 5, 15)
	assert.Error(t, err)
}

func TestGuidelineCount(t *testing.T) {
	path := writeGuide(t, sampleGuide)
	kb, err := New(path, newFakeEmbedder(), 5, 15)
	require.NoError(t, err)

	assert.Equal(t, 5, kb.GuidelineCount(50))
	assert.Equal(t, 5, kb.GuidelineCount(100))
	assert.Equal(t, 15, kb.GuidelineCount(500))
	assert.Equal(t, 15, kb.GuidelineCount(2000))

	// Midpoint interpolates halfway between min and max
	assert.Equal(t, 10, kb.GuidelineCount(300))
}

func TestLookup(t *testing.T) {
	path := writeGuide(t, sampleGuide)
	kb, err := New(path, newFakeEmbedder(), 1, 1)
	require.NoError(t, err)

	result, err := kb.Lookup(context.Background(), "En venlig hilsen til modtageren")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result, "<style_guidelines>"))
	assert.True(t, strings.HasSuffix(result, "</style_guidelines>"))
	assert.Contains(t, result, "<tone>")
	assert.Contains(t, result, "venlig og professionel")
}

func TestLookupRebuildsOnFileChange(t *testing.T) {
	path := writeGuide(t, sampleGuide)
	embedder := newFakeEmbedder()
	kb, err := New(path, embedder, 1, 1)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = kb.Lookup(ctx, "venlig tekst")
	require.NoError(t, err)
	callsAfterFirst := embedder.calls

	// Unchanged file must not trigger a rebuild
	_, err = kb.Lookup(ctx, "venlig tekst")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst+1, embedder.calls, "only the query embedding call is expected")

	// Touch the file with new content and a newer mtime
	require.NoError(t, os.WriteFile(path, []byte("<tone>\n- En helt ny retningslinje om venlig skrivestil\n</tone>"), 0644))
	newTime := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	result, err := kb.Lookup(ctx, "venlig tekst")
	require.NoError(t, err)
	assert.Contains(t, result, "helt ny retningslinje")
}

func TestStats(t *testing.T) {
	path := writeGuide(t, sampleGuide)
	kb, err := New(path, newFakeEmbedder(), 5, 15)
	require.NoError(t, err)

	stats, err := kb.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, path, stats.Path)
	assert.Equal(t, 2, stats.Sections)
	assert.Greater(t, stats.Chunks, 0)
	assert.Equal(t, 5, stats.MinResults)
	assert.Equal(t, 15, stats.MaxResults)
	assert.False(t, stats.BuiltAt.IsZero())
}

func TestLookupEmptyGuide(t *testing.T) {
	path := writeGuide(t, "")
	kb, err := New(path, newFakeEmbedder(), 5, 15)
	require.NoError(t, err)

	_, err = kb.Lookup(context.Background(), "tekst")
	assert.Error(t, err)
}
