package knowledge

import (
	"math"
	"sort"
)

// indexEntry pairs a chunk with its embedding vector.
type indexEntry struct {
	chunk  Chunk
	vector []float32
}

// Index is an in-memory vector index over style guide chunks. The corpus is
// a few hundred chunks at most, so exact brute-force search is fast enough
// and avoids an external vector store.
type Index struct {
	entries []indexEntry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add inserts a chunk with its embedding.
func (idx *Index) Add(chunk Chunk, vector []float32) {
	idx.entries = append(idx.entries, indexEntry{chunk: chunk, vector: vector})
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Match is a search result with its similarity score.
type Match struct {
	Chunk Chunk
	Score float64
}

// Search returns the k chunks most similar to the query vector, best first.
func (idx *Index) Search(query []float32, k int) []Match {
	if k <= 0 || len(idx.entries) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(idx.entries))
	for _, entry := range idx.entries {
		matches = append(matches, Match{
			Chunk: entry.chunk,
			Score: CosineSimilarity(query, entry.vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

// CosineSimilarity computes the cosine similarity of two vectors. Mismatched
// or zero-length vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
