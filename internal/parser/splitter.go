package parser

import "strings"

// SplitMultiTask splits a task-category transcript into per-task segments
// when more than one period-delimited segment contains the word "task"
// (spec.md §4.5). The trailing segment produced by a final "task" marker
// names the project, not a sub-task -- per spec.md §9's resolution of the
// ambiguity (Scenario B), the segment after the last "task" delimiter is
// dropped from the returned sub-tasks via the `[:-1]` slice convention.
func SplitMultiTask(text string) []string {
	segments := splitOnSentences(text)

	var markers []int
	for i, seg := range segments {
		if wordBoundary("task").MatchString(seg) {
			markers = append(markers, i)
		}
	}
	if len(markers) < 2 {
		return nil
	}

	var tasks []string
	for i := 0; i < len(markers); i++ {
		start := 0
		if i > 0 {
			start = markers[i-1] + 1
		}
		end := markers[i] // exclude the "task" marker segment itself
		chunk := strings.TrimSpace(strings.Join(segments[start:end], ". "))
		if chunk != "" {
			tasks = append(tasks, chunk)
		}
	}

	// Drop the trailing segment: it names the project for the preceding
	// tasks rather than describing one of its own (spec.md §9 Scenario B).
	if len(tasks) > 0 {
		tasks = tasks[:len(tasks)-1]
	}
	return tasks
}

func splitOnSentences(text string) []string {
	raw := strings.Split(text, ".")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return segments
}
