// Package knowledge provides style guide lookup backed by embeddings. A
// markdown style guide is split into guideline chunks and indexed once.
// Each lookup then pulls only the guidelines relevant to the text being
// corrected.
package knowledge

import (
	"regexp"
	"sort"
	"strings"
)

// Chunk is a single guideline extracted from the style guide.
type Chunk struct {
	// Section tag the chunk came from
	Section string
	// Guideline text
	Text string
}

const (
	minBulletLength    = 20
	minParagraphLength = 50
)

// Style guides mark their sections with XML-style tags. Go's regexp has no
// backreferences, so tag pairing is checked after matching.
var sectionPattern = regexp.MustCompile(`(?s)<(\w+)>(.*?)</(\w+)>`)

// ParseSections extracts tagged sections from a style guide. Content outside
// any tag pair is grouped under a "general" section.
func ParseSections(content string) map[string]string {
	sections := make(map[string]string)

	matches := sectionPattern.FindAllStringSubmatch(content, -1)
	for _, m := range matches {
		if m[1] != m[3] {
			continue
		}
		sections[m[1]] = strings.TrimSpace(m[2])
	}

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(content)
		if trimmed != "" {
			sections["general"] = trimmed
		}
	}

	return sections
}

// ExtractChunks splits section text into guideline chunks. Bullet points
// become individual chunks; remaining prose is chunked per paragraph.
// Headers, code fences and short fragments are dropped, and duplicates are
// removed while preserving order.
func ExtractChunks(section string, text string) []Chunk {
	var chunks []Chunk
	seen := make(map[string]bool)

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		chunks = append(chunks, Chunk{Section: section, Text: s})
	}

	var paragraph []string
	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		joined := strings.Join(paragraph, " ")
		paragraph = nil
		if len(joined) > minParagraphLength {
			add(joined)
		}
	}

	inCodeFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeFence = !inCodeFence
			flushParagraph()
			continue
		}
		if inCodeFence {
			continue
		}

		switch {
		case trimmed == "":
			flushParagraph()
		case strings.HasPrefix(trimmed, "#"):
			flushParagraph()
		case isBullet(trimmed):
			flushParagraph()
			bullet := strings.TrimSpace(trimmed[1:])
			if len(bullet) > minBulletLength {
				add(bullet)
			}
		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()

	return chunks
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}

// ChunkStyleGuide parses a full style guide into chunks across all sections.
// Each section is indexed whole as well as split into sub-chunks, so a query
// matching a section's overall theme retrieves it even when no single bullet
// matches. Sections are processed in name order so the index is deterministic.
func ChunkStyleGuide(content string) []Chunk {
	sections := ParseSections(content)

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var chunks []Chunk
	for _, name := range names {
		body := strings.TrimSpace(sections[name])
		if body == "" {
			continue
		}
		chunks = append(chunks, Chunk{Section: name, Text: body})
		for _, chunk := range ExtractChunks(name, body) {
			if chunk.Text != body {
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks
}

// Sentence boundaries for extracting the most relevant part of a chunk.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?`)

// SplitSentences splits text into sentences on terminal punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
