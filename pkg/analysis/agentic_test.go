package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/tekstfix/pkg/errors"
)

func verificationResponse(done bool, score int, reasoning string) map[string]interface{} {
	return map[string]interface{}{
		"is_done":          done,
		"quality_score":    float64(score),
		"reasoning":        reasoning,
		"remaining_issues": []interface{}{},
		"suggestions":      []interface{}{},
	}
}

func TestAgenticStopsWhenDone(t *testing.T) {
	llm := newScriptedLLM(
		analysisResponse("Rettet tekst", ""),
		verificationResponse(true, 95, "Teksten er i orden"),
	)
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 3, 0)

	result, err := aa.AnalyzeText(context.Background(), "Tekst med fjel", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalIterations)
	assert.Equal(t, "Rettet tekst", result.FinalText)
	assert.Equal(t, 95, result.FinalQualityScore)
	assert.Equal(t, "Teksten er i orden", result.FinalFeedback)
}

func TestAgenticFeedsCorrectedTextForward(t *testing.T) {
	llm := newScriptedLLM(
		analysisResponse("Første rettelse", ""),
		verificationResponse(false, 60, "Stadig fejl"),
		analysisResponse("Anden rettelse", ""),
		verificationResponse(true, 92, "Nu er den god"),
	)
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 3, 0)

	result, err := aa.AnalyzeText(context.Background(), "Original", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalIterations)
	assert.Equal(t, "Anden rettelse", result.FinalText)
	assert.Equal(t, "Original", result.OriginalText)

	// Second analysis prompt must contain the first round's correction
	require.Len(t, llm.prompts, 4)
	assert.Contains(t, llm.prompts[2], "Første rettelse")

	// Corrections carry their iteration number
	require.Len(t, result.AllCorrections, 2)
	assert.Equal(t, 1, result.AllCorrections[0].Iteration)
	assert.Equal(t, 2, result.AllCorrections[1].Iteration)
}

func TestAgenticRespectsIterationCap(t *testing.T) {
	llm := newScriptedLLM(
		analysisResponse("r1", ""),
		verificationResponse(false, 40, "fejl"),
		analysisResponse("r2", ""),
		verificationResponse(false, 50, "fejl"),
		analysisResponse("r3", ""),
		verificationResponse(false, 55, "fejl"),
	)
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 2, 0)

	var callbackRounds []int
	result, err := aa.AnalyzeText(context.Background(), "tekst", func(iteration, max int, done bool, reasoning string) {
		callbackRounds = append(callbackRounds, iteration)
		assert.Equal(t, 2, max)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalIterations)
	assert.Equal(t, "r2", result.FinalText)
	assert.Equal(t, []int{1, 2}, callbackRounds)
}

func TestAgenticQualityThresholdStopsEarly(t *testing.T) {
	llm := newScriptedLLM(
		analysisResponse("rettet", ""),
		verificationResponse(false, 93, "Næsten perfekt"),
	)
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 3, 90)

	result, err := aa.AnalyzeText(context.Background(), "tekst", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalIterations)
	assert.True(t, result.Iterations[0].IsDone)
}

func TestAgenticVerificationFailureAssumesDone(t *testing.T) {
	llm := newScriptedLLM(analysisResponse("rettet", ""))
	llm.errs = []error{nil, errors.New(errors.LLMGenerationFailed, "nede")}
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 3, 0)

	result, err := aa.AnalyzeText(context.Background(), "tekst", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalIterations)
	assert.Equal(t, 50, result.FinalQualityScore)
	assert.Contains(t, result.FinalFeedback, "Verifikation fejlede")
}

func TestAgenticAnalyzeFileAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notat.txt")
	require.NoError(t, os.WriteFile(path, []byte("Tekst med fjel"), 0644))

	llm := newScriptedLLM(
		analysisResponse("Tekst med fejl", ""),
		verificationResponse(true, 97, "ok"),
	)
	aa := NewAgenticAnalyzer(NewAnalyzer(llm), llm, 3, 0)

	result, err := aa.AnalyzeFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "notat.txt", result.FileName)

	saved, err := aa.SaveResult(context.Background(), result, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notat_corrected.txt"), saved)

	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "Tekst med fejl", string(data))
}
