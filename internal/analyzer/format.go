package analyzer

import (
	"context"
	"regexp"
	"strings"

	"voicepipe/internal/llmclient"
	"voicepipe/internal/parser"
)

// MetaCommentaryPatterns are stripped from task bodies before any cleanup
// LLM call (spec.md §4.7). Each pattern hit lowers the returned
// confidence.
var MetaCommentaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i recorded a message asking you to`),
	regexp.MustCompile(`(?i)this is a reminder to`),
	regexp.MustCompile(`(?i)note to self[,:]?`),
	regexp.MustCompile(`(?i)just recording this so`),
}

// FormatResult carries the formatted body plus the confidence signal the
// analyzer uses to decide whether manual review is warranted.
type FormatResult struct {
	Content    string
	Confidence float64
}

// FormatTask removes meta-commentary, then optionally asks the LLM to
// clean up phrasing; confidence starts at 1.0 and drops with each
// meta-commentary hit, rising back up only on a successful LLM pass
// (spec.md §4.7).
func FormatTask(ctx context.Context, llm *llmclient.Client, content string) FormatResult {
	cleaned, hits := stripMetaCommentary(content)
	confidence := 1.0 - 0.1*float64(hits)
	if confidence < 0.3 {
		confidence = 0.3
	}

	if llm == nil || !llm.Available() {
		return FormatResult{Content: strings.TrimSpace(cleaned), Confidence: confidence}
	}

	system := "Lightly clean up this personal task description for clarity. Keep it short, one or two sentences, no meta-commentary, no added information."
	result, err := llm.Complete(ctx, system, cleaned)
	if err != nil || strings.TrimSpace(result) == "" {
		return FormatResult{Content: strings.TrimSpace(cleaned), Confidence: confidence}
	}

	boosted := confidence + 0.1
	if boosted > 1.0 {
		boosted = 1.0
	}
	return FormatResult{Content: strings.TrimSpace(result), Confidence: boosted}
}

// FormatNote never invokes the LLM on note bodies: only whitespace
// collapse and sentence re-break (spec.md §4.7).
func FormatNote(content string) FormatResult {
	return FormatResult{Content: parser.FormatNote(content), Confidence: 1.0}
}

func stripMetaCommentary(content string) (string, int) {
	hits := 0
	for _, pattern := range MetaCommentaryPatterns {
		if pattern.MatchString(content) {
			hits++
			content = pattern.ReplaceAllString(content, "")
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(content), " ")), hits
}
