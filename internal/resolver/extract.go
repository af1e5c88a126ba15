package resolver

import (
	"strings"

	"voicepipe/internal/model"
)

// ManualReviewConfidence is the confidence reported when no candidate
// phrase reaches the fuzzy-match threshold (spec.md §4.6 step 4).
const ManualReviewConfidence = 0.0

// maxWindow / minWindow bound the sliding-window phrase search (spec.md
// §4.6 step 2): longest window first, 5 words down to 1.
const (
	maxWindow = 5
	minWindow = 1
)

// ExtractProject finds the project name referenced by a transcript,
// applying the sliding-window extraction and fuzzy matching described in
// spec.md §4.6 steps 1-4. categoryKeyword is "task" or "note" depending on
// the transcript's detected category. ignored is the configured token set
// that must not, on its own, be treated as a project name.
func (c *Catalog) ExtractProject(text, categoryKeyword string, ignored []string) model.FuzzyMatch {
	prefix := lastOccurrencePrefix(text, categoryKeyword)
	words := strings.Fields(prefix)
	if len(words) == 0 {
		return model.FuzzyMatch{MatchType: model.MatchNone, Confidence: ManualReviewConfidence}
	}

	ignoredSet := make(map[string]bool, len(ignored))
	for _, w := range ignored {
		ignoredSet[strings.ToLower(w)] = true
	}

	var best model.FuzzyMatch
	haveBest := false

	for windowSize := maxWindow; windowSize >= minWindow; windowSize-- {
		if windowSize > len(words) {
			continue
		}
		start := len(words) - windowSize
		candidateWords := words[start:]
		if isOnlyIgnored(candidateWords, ignoredSet) {
			continue
		}
		candidate := strings.Join(candidateWords, " ")

		match := c.Match(candidate)
		if match.Confidence >= FuzzyThreshold {
			return match
		}
		if !haveBest || match.Confidence > best.Confidence {
			best = match
			haveBest = true
		}
	}

	if haveBest && best.Confidence > 0 {
		return best
	}
	return model.FuzzyMatch{MatchType: model.MatchNone, Confidence: ManualReviewConfidence}
}

// lastOccurrencePrefix returns the text preceding the last occurrence of
// keyword (case-insensitive, whole word), per spec.md §4.6 step 1.
func lastOccurrencePrefix(text, keyword string) string {
	lower := strings.ToLower(text)
	keyword = strings.ToLower(keyword)

	idx := -1
	search := lower
	offset := 0
	for {
		pos := strings.Index(search, keyword)
		if pos == -1 {
			break
		}
		absolute := offset + pos
		if wordBoundaryAt(lower, absolute, len(keyword)) {
			idx = absolute
		}
		offset = absolute + len(keyword)
		search = lower[offset:]
	}
	if idx == -1 {
		return text
	}
	return text[:idx]
}

func wordBoundaryAt(s string, start, length int) bool {
	if start > 0 && isWordChar(s[start-1]) {
		return false
	}
	end := start + length
	if end < len(s) && isWordChar(s[end]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isOnlyIgnored(words []string, ignored map[string]bool) bool {
	for _, w := range words {
		clean := strings.ToLower(strings.Trim(w, ".,!?;:"))
		if !ignored[clean] {
			return false
		}
	}
	return true
}
