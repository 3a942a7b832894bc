package analysis

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sourcegraph/conc/pool"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/document"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/knowledge"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// ProgressFunc is called before each file in a folder analysis. current is
// 1-based.
type ProgressFunc func(current, total int, fileName string)

// Analyzer corrects documents with an LLM, optionally guided by a style
// guide knowledge base.
type Analyzer struct {
	llm         core.LLM
	kb          *knowledge.KnowledgeBase
	aspects     Aspects
	concurrency int
	maxRetries  uint64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithKnowledgeBase attaches a style guide knowledge base. Relevant
// guidelines are retrieved per document and included in the prompt.
func WithKnowledgeBase(kb *knowledge.KnowledgeBase) Option {
	return func(a *Analyzer) { a.kb = kb }
}

// WithAspects selects which aspects of the text are corrected.
func WithAspects(aspects Aspects) Option {
	return func(a *Analyzer) { a.aspects = aspects }
}

// WithConcurrency sets how many documents are analyzed in parallel.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMaxRetries sets how many times failed LLM calls are retried.
func WithMaxRetries(n uint64) Option {
	return func(a *Analyzer) { a.maxRetries = n }
}

// NewAnalyzer creates an Analyzer using the given LLM.
func NewAnalyzer(llm core.LLM, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:         llm,
		aspects:     AllAspects(),
		concurrency: 4,
		maxRetries:  3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FindFiles returns all supported document files under root, including
// subdirectories, in sorted order.
func FindFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "folder does not exist"),
			errors.Fields{"path": root})
	}
	if !info.IsDir() {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "path is not a folder"),
			errors.Fields{"path": root})
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && document.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "failed to walk folder")
	}

	sort.Strings(files)
	return files, nil
}

// AnalyzeText runs a single correction pass over text. An LLM failure does
// not lose the document: the result then carries the unchanged text with the
// error as feedback and Degraded set.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*Result, error) {
	if err := errors.CheckContext(ctx, "analyze text"); err != nil {
		return nil, err
	}

	logger := logging.GetLogger()
	ctx = logging.WithModelID(ctx, a.llm.ModelID())

	styleGuidelines := ""
	if a.kb != nil {
		guidelines, err := a.kb.Lookup(ctx, text)
		if err != nil {
			logger.Warn(ctx, "Style guide lookup failed, analyzing without guidelines: %v", err)
		} else {
			styleGuidelines = guidelines
		}
	}

	prompt := buildAnalysisPrompt(text, a.aspects, styleGuidelines)

	raw, err := a.generateJSONWithRetry(ctx, prompt)
	if err != nil {
		logger.Error(ctx, "Analysis failed, returning text unchanged: %v", err)
		return &Result{
			OriginalText:  text,
			CorrectedText: text,
			Feedback:      "Fejl ved analyse: " + err.Error(),
			Degraded:      true,
		}, nil
	}

	return parseAnalysis(raw, text), nil
}

// AnalyzeFile reads a document and runs a correction pass over its content.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	text, err := document.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	result, err := a.AnalyzeText(ctx, text)
	if err != nil {
		return nil, err
	}

	result.RunID = uuid.New().String()
	result.FilePath = path
	result.FileName = filepath.Base(path)
	result.Format = document.DetectFormat(path)
	return result, nil
}

// AnalyzeFiles analyzes the given documents concurrently; results come back
// in input order. A canceled context aborts the remaining files.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []string, progress ProgressFunc) ([]*Result, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]*Result, len(files))
	var started atomic.Int64

	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(a.concurrency)

	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if progress != nil {
				progress(int(started.Add(1)), len(files), filepath.Base(path))
			}
			result, err := a.AnalyzeFile(ctx, path)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AnalyzeFolder analyzes every supported document under root.
func (a *Analyzer) AnalyzeFolder(ctx context.Context, root string, progress ProgressFunc) ([]*Result, error) {
	files, err := FindFiles(root)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeFiles(ctx, files, progress)
}

// SaveCorrected writes a result's corrected text next to the input file,
// with a _corrected suffix unless overwrite is set. The written path is
// returned.
func (a *Analyzer) SaveCorrected(ctx context.Context, result *Result, overwrite bool) (string, error) {
	if result.CorrectedText == "" {
		return "", errors.New(errors.InvalidInput, "result has no corrected text")
	}
	outputPath := document.CorrectedPath(result.FilePath, overwrite)
	return document.Write(ctx, outputPath, result.CorrectedText)
}

// SaveAll writes corrected text for every result that has one, returning the
// written paths.
func (a *Analyzer) SaveAll(ctx context.Context, results []*Result, overwrite bool) ([]string, error) {
	var saved []string
	for _, result := range results {
		if result == nil || result.CorrectedText == "" {
			continue
		}
		path, err := a.SaveCorrected(ctx, result, overwrite)
		if err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// generateJSONWithRetry calls the LLM with fibonacci backoff on transient
// failures. Rate limits and transport errors are retried; invalid responses
// are not.
func (a *Analyzer) generateJSONWithRetry(ctx context.Context, prompt string) (map[string]interface{}, error) {
	var result map[string]interface{}

	backoff := retry.WithMaxRetries(a.maxRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := a.llm.GenerateWithJSON(ctx, prompt)
		if err != nil {
			if errors.HasCode(err, errors.RateLimitExceeded) || errors.HasCode(err, errors.LLMGenerationFailed) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
