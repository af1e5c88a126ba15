package analyzer

import (
	"context"
	"fmt"
	"strings"

	"voicepipe/internal/llmclient"
	"voicepipe/internal/model"
	"voicepipe/internal/parser"
)

const (
	taskTitleExcerptWords = 200
	noteTitleExcerptWords = 500
)

// GenerateTitle issues one completion asking for a 4-8 word title, falling
// back to first-N-word truncation on any LLM failure -- title generation
// alone must never fail the pipeline (spec.md §4.7).
func GenerateTitle(ctx context.Context, llm *llmclient.Client, category model.Category, text string) string {
	excerptWords := taskTitleExcerptWords
	styleHint := "a 4-8 word title in verb-object-context form (e.g. \"Call dentist about filling\")"
	if category == model.CategoryNote {
		excerptWords = noteTitleExcerptWords
		styleHint = "a 4-8 word title capturing the topic or insight"
	}
	excerpt := parser.TitleExcerpt(text, excerptWords)

	if llm != nil && llm.Available() {
		system := fmt.Sprintf("You generate short titles for personal %s entries. Produce only %s. Do not wrap the title in quotes.", string(category), styleHint)
		title, err := llm.Complete(ctx, system, excerpt)
		if err == nil {
			if cleaned := cleanTitle(title); cleaned != "" {
				return cleaned
			}
		}
	}

	return fallbackTitle(excerpt)
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	return strings.TrimSpace(title)
}

// fallbackTitle truncates to the first 8 words when the LLM is
// unavailable or fails (spec.md §4.7).
func fallbackTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
