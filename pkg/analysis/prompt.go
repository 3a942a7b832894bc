package analysis

import (
	"fmt"
	"strings"
)

// Aspects selects which parts of the text the model is asked to correct.
type Aspects struct {
	Grammar   bool
	Spelling  bool
	Structure bool
	Clarity   bool
}

// AllAspects enables every analysis aspect.
func AllAspects() Aspects {
	return Aspects{Grammar: true, Spelling: true, Structure: true, Clarity: true}
}

// describe lists the enabled aspects in the wording the prompt uses. With
// nothing enabled, all aspects apply.
func (a Aspects) describe() string {
	var parts []string
	if a.Grammar {
		parts = append(parts, "grammatiske fejl")
	}
	if a.Spelling {
		parts = append(parts, "stavefejl")
	}
	if a.Structure {
		parts = append(parts, "tekststruktur og sammenhæng")
	}
	if a.Clarity {
		parts = append(parts, "klarhed og læsbarhed")
	}
	if len(parts) == 0 {
		return AllAspects().describe()
	}
	return strings.Join(parts, ", ")
}

// buildAnalysisPrompt constructs the Danish correction prompt. Style
// guidelines, when available, are included so corrections follow the house
// style.
func buildAnalysisPrompt(text string, aspects Aspects, styleGuidelines string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyser følgende danske tekst for %s.\n\n", aspects.describe())

	if styleGuidelines != "" {
		sb.WriteString("Følg disse retningslinjer fra stilguiden når du retter teksten:\n")
		sb.WriteString(styleGuidelines)
		sb.WriteString("\n\n")
	}

	sb.WriteString(`Returner dit svar som JSON med følgende struktur:
{
    "corrected_text": "Den rettede tekst her",
    "corrections": [
        {"type": "grammatik/stavning/struktur/klarhed", "original": "fejl", "correction": "rettelse", "explanation": "forklaring"}
    ],
    "feedback": "Overordnet feedback om teksten"
}

Tekst til analyse:
`)
	sb.WriteString(text)
	sb.WriteString("\n\nReturner KUN JSON, ingen anden tekst.")

	return sb.String()
}

// buildVerificationPrompt constructs the Danish quality control prompt used
// by the iterative loop.
func buildVerificationPrompt(originalText, correctedText string, correctionCount int) string {
	return fmt.Sprintf(`Du er en kvalitetskontrollør. Vurder om følgende tekstrettelser er gode nok.

Original tekst:
%s

Rettet tekst:
%s

Antal rettelser: %d

Analyser følgende:
1. Er alle grammatiske fejl rettet?
2. Er stavningen korrekt?
3. Er teksten klar og læsbar?
4. Er der stadig åbenlyse fejl?

Returner JSON:
{
    "is_done": true/false,
    "quality_score": 0-100,
    "reasoning": "Forklaring på beslutningen",
    "remaining_issues": ["liste af eventuelle problemer der stadig findes"],
    "suggestions": ["forslag til yderligere forbedringer"]
}

Returner KUN JSON.`, originalText, correctedText, correctionCount)
}
