package analysis

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mkrogh/tekstfix/pkg/core"
	"github.com/mkrogh/tekstfix/pkg/document"
	"github.com/mkrogh/tekstfix/pkg/errors"
	"github.com/mkrogh/tekstfix/pkg/logging"
)

// Iteration records one analyze-verify round of the agentic loop.
type Iteration struct {
	Number       int          `json:"iteration"`
	Analysis     *Result      `json:"analysis"`
	Verification Verification `json:"verification"`
	IsDone       bool         `json:"is_done"`
	Reasoning    string       `json:"reasoning"`
}

// AgenticResult holds the outcome of an iterative analysis.
type AgenticResult struct {
	RunID    string          `json:"run_id"`
	FilePath string          `json:"file_path"`
	FileName string          `json:"file_name"`
	Format   document.Format `json:"file_format"`

	OriginalText  string `json:"original_text"`
	FinalText     string `json:"final_corrected_text"`
	FinalFeedback string `json:"final_feedback"`

	TotalIterations   int          `json:"total_iterations"`
	Iterations        []Iteration  `json:"iterations"`
	FinalQualityScore int          `json:"final_quality_score"`
	AllCorrections    []Correction `json:"all_corrections"`
}

// IterationFunc is called after each round of the loop.
type IterationFunc func(iteration, maxIterations int, done bool, reasoning string)

// AgenticAnalyzer runs the correction loop: analyze, let the model verify
// its own work, and feed the corrected text back in until the model is
// satisfied, the quality threshold is reached, or the iteration cap hits.
type AgenticAnalyzer struct {
	analyzer         *Analyzer
	llm              core.LLM
	maxIterations    int
	qualityThreshold int
}

// NewAgenticAnalyzer creates an iterative analyzer on top of a single-pass
// Analyzer. maxIterations caps the loop; qualityThreshold (0-100) stops it
// early when the verification score reaches it.
func NewAgenticAnalyzer(analyzer *Analyzer, llm core.LLM, maxIterations, qualityThreshold int) *AgenticAnalyzer {
	if maxIterations <= 0 {
		maxIterations = 3
	}
	return &AgenticAnalyzer{
		analyzer:         analyzer,
		llm:              llm,
		maxIterations:    maxIterations,
		qualityThreshold: qualityThreshold,
	}
}

// AnalyzeFile runs the agentic loop over a document.
func (aa *AgenticAnalyzer) AnalyzeFile(ctx context.Context, path string, callback IterationFunc) (*AgenticResult, error) {
	text, err := document.Read(ctx, path)
	if err != nil {
		return nil, err
	}

	result, err := aa.AnalyzeText(ctx, text, callback)
	if err != nil {
		return nil, err
	}

	result.RunID = uuid.New().String()
	result.FilePath = path
	result.FileName = filepath.Base(path)
	result.Format = document.DetectFormat(path)
	return result, nil
}

// AnalyzeText runs the agentic loop over raw text.
func (aa *AgenticAnalyzer) AnalyzeText(ctx context.Context, text string, callback IterationFunc) (*AgenticResult, error) {
	logger := logging.GetLogger()

	currentText := text
	var iterations []Iteration
	done := false

	for round := 1; !done && round <= aa.maxIterations; round++ {
		if err := errors.CheckContext(ctx, "agentic analysis"); err != nil {
			return nil, err
		}

		analysis, err := aa.analyzer.AnalyzeText(ctx, currentText)
		if err != nil {
			return nil, err
		}

		verification := aa.verify(ctx, currentText, analysis.CorrectedText, len(analysis.Corrections))
		done = verification.IsDone ||
			(aa.qualityThreshold > 0 && verification.QualityScore >= aa.qualityThreshold)

		logger.Info(ctx, "Iteration %d/%d: score %d, done=%v",
			round, aa.maxIterations, verification.QualityScore, done)

		iterations = append(iterations, Iteration{
			Number:       round,
			Analysis:     analysis,
			Verification: verification,
			IsDone:       done,
			Reasoning:    verification.Reasoning,
		})

		if callback != nil {
			callback(round, aa.maxIterations, done, verification.Reasoning)
		}

		if !done {
			currentText = analysis.CorrectedText
		}
	}

	last := iterations[len(iterations)-1]
	result := &AgenticResult{
		OriginalText:      text,
		FinalText:         last.Analysis.CorrectedText,
		FinalFeedback:     last.Verification.Reasoning,
		TotalIterations:   len(iterations),
		Iterations:        iterations,
		FinalQualityScore: last.Verification.QualityScore,
	}

	for _, iteration := range iterations {
		for _, correction := range iteration.Analysis.Corrections {
			correction.Iteration = iteration.Number
			result.AllCorrections = append(result.AllCorrections, correction)
		}
	}

	return result, nil
}

// verify asks the model to judge its own correction. A failed verification
// does not abort the loop: the round is treated as done with a middling
// score, mirroring a reviewer who cannot decide.
func (aa *AgenticAnalyzer) verify(ctx context.Context, originalText, correctedText string, correctionCount int) Verification {
	prompt := buildVerificationPrompt(originalText, correctedText, correctionCount)

	raw, err := aa.llm.GenerateWithJSON(ctx, prompt, core.WithMaxTokens(2048))
	if err != nil {
		logging.GetLogger().Warn(ctx, "Verification failed, assuming done: %v", err)
		return Verification{
			IsDone:       true,
			QualityScore: 50,
			Reasoning:    "Verifikation fejlede: " + err.Error(),
		}
	}

	return parseVerification(raw)
}

// SaveResult writes the final corrected text of an agentic run. The output
// path convention matches Analyzer.SaveCorrected.
func (aa *AgenticAnalyzer) SaveResult(ctx context.Context, result *AgenticResult, overwrite bool) (string, error) {
	if result.FinalText == "" {
		return "", errors.New(errors.InvalidInput, "result has no corrected text")
	}
	outputPath := document.CorrectedPath(result.FilePath, overwrite)
	return document.Write(ctx, outputPath, result.FinalText)
}
