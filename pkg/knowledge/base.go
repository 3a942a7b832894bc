package knowledge

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// Word count thresholds for the adaptive guideline count.
const (
	shortTextWords = 100
	longTextWords  = 500
)

// How many sentences of a long chunk survive condensation.
const sentencesPerChunk = 3

// KnowledgeBase retrieves style guidelines relevant to a given text. The
// style guide file is chunked and embedded on first use and re-indexed when
// the file changes on disk.
type KnowledgeBase struct {
	path          string
	embedder      core.LLM
	minGuidelines int
	maxGuidelines int

	mu       sync.Mutex
	index    *Index
	modTime  time.Time
	builtAt  time.Time
	sections int
}

// New creates a knowledge base over the style guide at path. The embedder
// must support the embedding capability.
func New(path string, embedder core.LLM, minGuidelines, maxGuidelines int) (*KnowledgeBase, error) {
	if path == "" {
		return nil, errors.New(errors.KnowledgeBaseUnavailable, "no style guide path configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.KnowledgeBaseUnavailable, "style guide not found"),
			errors.Fields{"path": path})
	}
	if minGuidelines <= 0 {
		minGuidelines = 5
	}
	if maxGuidelines < minGuidelines {
		maxGuidelines = minGuidelines
	}

	return &KnowledgeBase{
		path:          path,
		embedder:      embedder,
		minGuidelines: minGuidelines,
		maxGuidelines: maxGuidelines,
	}, nil
}

// GuidelineCount returns how many guidelines to retrieve for a text of the
// given word count. Short texts get the minimum, long texts the maximum,
// with linear interpolation in between.
func (kb *KnowledgeBase) GuidelineCount(wordCount int) int {
	if wordCount <= shortTextWords {
		return kb.minGuidelines
	}
	if wordCount >= longTextWords {
		return kb.maxGuidelines
	}

	span := float64(kb.maxGuidelines - kb.minGuidelines)
	fraction := float64(wordCount-shortTextWords) / float64(longTextWords-shortTextWords)
	return kb.minGuidelines + int(span*fraction+0.5)
}

// Lookup returns style guidelines relevant to the text, formatted as an XML
// block ready for prompt inclusion. The guideline count adapts to the text
// length.
func (kb *KnowledgeBase) Lookup(ctx context.Context, text string) (string, error) {
	if err := kb.ensureIndex(ctx); err != nil {
		return "", err
	}

	queryResult, err := kb.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return "", errors.Wrap(err, errors.KnowledgeBaseUnavailable, "failed to embed query text")
	}

	k := kb.GuidelineCount(len(strings.Fields(text)))

	kb.mu.Lock()
	matches := kb.index.Search(queryResult.Vector, k)
	kb.mu.Unlock()

	if len(matches) == 0 {
		return "", nil
	}

	// Group guidelines by section, condensing long chunks to their most
	// relevant sentences.
	bySection := make(map[string][]string)
	var sectionOrder []string
	for _, match := range matches {
		condensed, err := kb.condense(ctx, match.Chunk.Text, queryResult.Vector)
		if err != nil {
			logging.GetLogger().Warn(ctx, "Failed to condense guideline, using full chunk: %v", err)
			condensed = match.Chunk.Text
		}
		if _, seen := bySection[match.Chunk.Section]; !seen {
			sectionOrder = append(sectionOrder, match.Chunk.Section)
		}
		bySection[match.Chunk.Section] = append(bySection[match.Chunk.Section], condensed)
	}

	var sb strings.Builder
	sb.WriteString("<style_guidelines>\n")
	for _, section := range sectionOrder {
		sb.WriteString(fmt.Sprintf("<%s>\n", section))
		for _, guideline := range bySection[section] {
			sb.WriteString(fmt.Sprintf("- %s\n", guideline))
		}
		sb.WriteString(fmt.Sprintf("</%s>\n", section))
	}
	sb.WriteString("</style_guidelines>")

	return sb.String(), nil
}

// condense keeps the sentences of a chunk most similar to the query. Short
// chunks pass through unchanged; sentence order is preserved.
func (kb *KnowledgeBase) condense(ctx context.Context, chunk string, query []float32) (string, error) {
	sentences := SplitSentences(chunk)
	if len(sentences) <= sentencesPerChunk {
		return chunk, nil
	}

	batch, err := kb.embedder.CreateEmbeddings(ctx, sentences)
	if err != nil {
		return "", err
	}
	if batch.Error != nil {
		return "", batch.Error
	}
	if len(batch.Embeddings) != len(sentences) {
		return chunk, nil
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, emb := range batch.Embeddings {
		ranked[i] = scored{index: i, score: CosineSimilarity(query, emb.Vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	keep := ranked[:sentencesPerChunk]
	sort.Slice(keep, func(i, j int) bool {
		return keep[i].index < keep[j].index
	})

	parts := make([]string, len(keep))
	for i, s := range keep {
		parts[i] = sentences[s.index]
	}
	return strings.Join(parts, " "), nil
}

// ensureIndex builds or rebuilds the chunk index when the style guide file
// has changed since the last build.
func (kb *KnowledgeBase) ensureIndex(ctx context.Context) error {
	info, err := os.Stat(kb.path)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.KnowledgeBaseUnavailable, "style guide not found"),
			errors.Fields{"path": kb.path})
	}

	kb.mu.Lock()
	current := kb.index != nil && info.ModTime().Equal(kb.modTime)
	kb.mu.Unlock()
	if current {
		return nil
	}

	logger := logging.GetLogger()
	logger.Info(ctx, "Indexing style guide %s", kb.path)

	data, err := os.ReadFile(kb.path)
	if err != nil {
		return errors.Wrap(err, errors.KnowledgeBaseUnavailable, "failed to read style guide")
	}

	chunks := ChunkStyleGuide(string(data))
	if len(chunks) == 0 {
		return errors.WithFields(
			errors.New(errors.KnowledgeBaseUnavailable, "style guide contains no usable guidelines"),
			errors.Fields{"path": kb.path})
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	batch, err := kb.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return errors.Wrap(err, errors.KnowledgeBaseUnavailable, "failed to embed style guide chunks")
	}
	if batch.Error != nil {
		return errors.WithFields(
			errors.Wrap(batch.Error, errors.KnowledgeBaseUnavailable, "failed to embed style guide chunks"),
			errors.Fields{"chunk_index": batch.ErrorIndex})
	}
	if len(batch.Embeddings) != len(chunks) {
		return errors.New(errors.KnowledgeBaseUnavailable, "embedding count does not match chunk count")
	}

	index := NewIndex()
	sections := make(map[string]bool)
	for i, chunk := range chunks {
		index.Add(chunk, batch.Embeddings[i].Vector)
		sections[chunk.Section] = true
	}

	kb.mu.Lock()
	kb.index = index
	kb.modTime = info.ModTime()
	kb.builtAt = time.Now()
	kb.sections = len(sections)
	kb.mu.Unlock()

	logger.Info(ctx, "Indexed %d guidelines from %d sections", index.Len(), len(sections))
	return nil
}

// Stats describes the state of the knowledge base index.
type Stats struct {
	Path       string
	Chunks     int
	Sections   int
	BuiltAt    time.Time
	MinResults int
	MaxResults int
}

// Stats returns index statistics, building the index first if needed.
func (kb *KnowledgeBase) Stats(ctx context.Context) (Stats, error) {
	if err := kb.ensureIndex(ctx); err != nil {
		return Stats{}, err
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()
	return Stats{
		Path:       kb.path,
		Chunks:     kb.index.Len(),
		Sections:   kb.sections,
		BuiltAt:    kb.builtAt,
		MinResults: kb.minGuidelines,
		MaxResults: kb.maxGuidelines,
	}, nil
}
