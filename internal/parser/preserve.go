package parser

import (
	"regexp"
	"strings"
)

// DefaultPreservationThreshold is the word count above which content is
// preserved verbatim rather than rewritten by the analyzer (spec.md §4.5).
const DefaultPreservationThreshold = 800

// ShouldPreserve reports whether a transcript's word count exceeds the
// configured preservation threshold (spec.md §3 AnalysisRecord.preserved_flag).
func ShouldPreserve(wordCount, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultPreservationThreshold
	}
	return wordCount > threshold
}

// TitleExcerpt returns the leading N words of text, used to derive a title
// from preserved content without rewriting the body (spec.md §4.5: 200
// words for tasks, 500 for notes).
func TitleExcerpt(text string, words int) string {
	fields := strings.Fields(text)
	if len(fields) <= words {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:words], " ")
}

var multiWhitespace = regexp.MustCompile(`[ \t]+`)
var sentenceEnd = regexp.MustCompile(`\.\s+`)

// FormatNote lightly formats note content without summarizing it: collapse
// runs of whitespace and re-break onto new lines after sentence-ending
// periods (spec.md §4.5).
func FormatNote(text string) string {
	collapsed := multiWhitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	return sentenceEnd.ReplaceAllString(collapsed, ".\n")
}

// PreservedContent returns the verbatim transcript body for a preserved
// record: the raw text with one trailing period and surrounding whitespace
// trimmed (spec.md §8 invariant 4).
func PreservedContent(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimSuffix(trimmed, ".")
	return strings.TrimSpace(trimmed)
}
