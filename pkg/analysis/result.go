// Package analysis corrects Danish text documents with an LLM. It covers
// single-pass batch analysis as well as an iterative mode where the model
// verifies its own corrections until the quality is good enough.
package analysis

import (
	"github.com/mkrogh/tekstfix/pkg/document"
)

// Correction is a single change the model made to the text.
type Correction struct {
	// Aspect of the correction: grammatik, stavning, struktur or klarhed
	Type string `json:"type"`
	// Text before the correction
	Original string `json:"original"`
	// Text after the correction
	Correction string `json:"correction"`
	// Why the change was made
	Explanation string `json:"explanation"`
	// Which iteration produced this correction (0 for single-pass analysis)
	Iteration int `json:"iteration,omitempty"`
}

// Result holds the outcome of analyzing one document.
type Result struct {
	// Unique ID for this analysis run
	RunID string `json:"run_id"`

	FilePath string          `json:"file_path"`
	FileName string          `json:"file_name"`
	Format   document.Format `json:"file_format"`

	OriginalText  string       `json:"original_text"`
	CorrectedText string       `json:"corrected_text"`
	Corrections   []Correction `json:"corrections"`
	Feedback      string       `json:"feedback"`

	// Set when the LLM call failed and the result is the unchanged input
	Degraded bool `json:"degraded,omitempty"`
}

// Verification holds the model's own quality assessment of a correction.
type Verification struct {
	IsDone          bool     `json:"is_done"`
	QualityScore    int      `json:"quality_score"`
	Reasoning       string   `json:"reasoning"`
	RemainingIssues []string `json:"remaining_issues"`
	Suggestions     []string `json:"suggestions"`
}

// parseAnalysis converts the model's JSON response into a Result. Missing
// fields fall back to the original text so a malformed response never loses
// the document content.
func parseAnalysis(raw map[string]interface{}, originalText string) *Result {
	result := &Result{
		OriginalText:  originalText,
		CorrectedText: originalText,
	}

	if corrected, ok := raw["corrected_text"].(string); ok && corrected != "" {
		result.CorrectedText = corrected
	}
	if feedback, ok := raw["feedback"].(string); ok {
		result.Feedback = feedback
	}
	if corrections, ok := raw["corrections"].([]interface{}); ok {
		for _, item := range corrections {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			result.Corrections = append(result.Corrections, Correction{
				Type:        stringField(entry, "type"),
				Original:    stringField(entry, "original"),
				Correction:  stringField(entry, "correction"),
				Explanation: stringField(entry, "explanation"),
			})
		}
	}

	return result
}

// parseVerification converts the model's JSON response into a Verification.
func parseVerification(raw map[string]interface{}) Verification {
	v := Verification{
		Reasoning: "Ingen forklaring",
	}

	if done, ok := raw["is_done"].(bool); ok {
		v.IsDone = done
	}
	if score, ok := raw["quality_score"].(float64); ok {
		v.QualityScore = int(score)
	}
	if reasoning, ok := raw["reasoning"].(string); ok && reasoning != "" {
		v.Reasoning = reasoning
	}
	v.RemainingIssues = stringSlice(raw, "remaining_issues")
	v.Suggestions = stringSlice(raw, "suggestions")

	return v
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringSlice(m map[string]interface{}, key string) []string {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
