package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestIndexSearch(t *testing.T) {
	idx := NewIndex()
	idx.Add(Chunk{Section: "tone", Text: "venlig tone"}, []float32{1, 0})
	idx.Add(Chunk{Section: "tone", Text: "kort og klart"}, []float32{0.9, 0.1})
	idx.Add(Chunk{Section: "formatering", Text: "datoformat"}, []float32{0, 1})

	matches := idx.Search([]float32{1, 0}, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "venlig tone", matches[0].Chunk.Text)
	assert.Equal(t, "kort og klart", matches[1].Chunk.Text)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestIndexSearchBounds(t *testing.T) {
	idx := NewIndex()
	assert.Nil(t, idx.Search([]float32{1}, 5))

	idx.Add(Chunk{Text: "eneste"}, []float32{1})
	assert.Len(t, idx.Search([]float32{1}, 5), 1)
	assert.Nil(t, idx.Search([]float32{1}, 0))
}
