package storeclient

import (
	"strings"

	"voicepipe/internal/model"
)

// MaxParagraphChars bounds each content block; the store's hard limit is
// 2000 chars, this stays 200 under it for safety (spec.md §4.8).
const MaxParagraphChars = 1800

// BuildProperties constructs the page-property map for an AnalysisRecord,
// varying by category, and attaches a project relation when one was
// resolved (spec.md §4.8).
func BuildProperties(record model.AnalysisRecord) map[string]any {
	props := map[string]any{
		"Name": map[string]any{
			"title": []map[string]any{
				{"text": map[string]any{"content": record.Title}},
			},
		},
	}

	switch record.Category {
	case model.CategoryTask:
		props["Duration"] = map[string]any{
			"select": map[string]any{"name": string(record.DurationCategory)},
		}
		if !record.DueDate.IsZero() {
			props["Due Date"] = map[string]any{
				"date": map[string]any{"start": record.DueDate.Format("2006-01-02")},
			}
		}
	case model.CategoryNote:
		// Notes carry no duration/due-date properties.
	}

	if len(record.Tags) > 0 {
		multiSelect := make([]map[string]any, len(record.Tags))
		for i, tag := range record.Tags {
			multiSelect[i] = map[string]any{"name": tag}
		}
		props["Tags"] = map[string]any{"multi_select": multiSelect}
	}

	if record.ProjectPageID != "" {
		props["Project"] = map[string]any{
			"relation": []map[string]any{{"id": record.ProjectPageID}},
		}
	}

	if record.ManualReviewFlag {
		props["Needs Review"] = map[string]any{"checkbox": true}
	}

	return props
}

// BuildIcon converts an AnalysisRecord's icon string into a Notion emoji
// icon object.
func BuildIcon(icon string) *Icon {
	if icon == "" {
		return nil
	}
	return &Icon{Type: "emoji", Emoji: icon}
}

// BuildContentBlocks chunks content into paragraph blocks each <=
// MaxParagraphChars, preserving word boundaries (spec.md §4.8).
func BuildContentBlocks(content string) []Block {
	chunks := chunkPreservingWords(content, MaxParagraphChars)
	blocks := make([]Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, Block{
			Object: "block",
			Type:   "paragraph",
			Paragraph: map[string]any{
				"rich_text": []map[string]any{
					{"text": map[string]any{"content": chunk}},
				},
			},
		})
	}
	return blocks
}

func chunkPreservingWords(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	words := strings.Fields(text)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range words {
		candidateLen := current.Len()
		if candidateLen > 0 {
			candidateLen++ // separating space
		}
		candidateLen += len(word)

		if candidateLen > limit && current.Len() > 0 {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()
	return chunks
}
