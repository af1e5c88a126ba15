package parser

import (
	"regexp"
	"strings"

	"voicepipe/internal/model"
)

// Keywords configures the word/phrase lists each tier matches against.
// Defaults live in internal/config; callers should populate this from the
// loaded configuration rather than hard-coding vocabulary here.
type Keywords struct {
	TaskKeywords       []string
	NoteKeywords       []string
	TaskImperatives    []string
	NoteIndicators     []string
	TaskIntentPhrases  []string
	CalendarKeywords   []string
}

// Detector runs the five-tier category decision (spec.md §4.5).
type Detector struct {
	Keywords Keywords
}

var wordBoundary = func(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

const lastLinesWindow = 20

// Detect runs the ordered five-tier detector; the first tier to hit wins
// (spec.md §4.5, §8 invariant 6).
func (d Detector) Detect(text string) model.CategoryDecision {
	if dec, ok := d.tier0EndMetadata(text); ok {
		return dec
	}
	if dec, ok := d.tier1ExplicitKeywords(text); ok {
		return dec
	}
	if dec, ok := d.tier2ImperativeVerbs(text); ok {
		return dec
	}
	if dec, ok := d.tier3NoteIndicators(text); ok {
		return dec
	}
	if dec, ok := d.tier4TaskIntent(text); ok {
		return dec
	}
	if dec, ok := d.tier5CalendarKeywords(text); ok {
		return dec
	}
	// Default: passive/ambiguous content is a note, not a task -- the
	// system's explicit bias (spec.md §4.5, §3 CategoryDecision).
	return model.CategoryDecision{Category: model.CategoryNote, Confidence: 0.5, ManualReviewFlag: true, Tier: -1}
}

// tier0EndMetadata checks the last 20 lines for a standalone "note" or
// "task" token; note is checked first so it outranks task when both
// appear (spec.md §4.5 Tier 0, §8 invariant 6).
func (d Detector) tier0EndMetadata(text string) (model.CategoryDecision, bool) {
	lines := strings.Split(text, "\n")
	start := len(lines) - lastLinesWindow
	if start < 0 {
		start = 0
	}
	tail := strings.Join(lines[start:], "\n")

	if wordBoundary("note").MatchString(tail) {
		return model.CategoryDecision{Category: model.CategoryNote, Confidence: 1.0, Tier: 0}, true
	}
	if wordBoundary("task").MatchString(tail) {
		return model.CategoryDecision{Category: model.CategoryTask, Confidence: 1.0, Tier: 0}, true
	}
	return model.CategoryDecision{}, false
}

func (d Detector) tier1ExplicitKeywords(text string) (model.CategoryDecision, bool) {
	lower := strings.ToLower(text)
	if containsAny(lower, d.Keywords.TaskKeywords) {
		return model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.9, Tier: 1}, true
	}
	if containsAny(lower, d.Keywords.NoteKeywords) {
		return model.CategoryDecision{Category: model.CategoryNote, Confidence: 0.9, Tier: 1}, true
	}
	return model.CategoryDecision{}, false
}

func (d Detector) tier2ImperativeVerbs(text string) (model.CategoryDecision, bool) {
	trimmed := strings.TrimSpace(text)
	firstWord := strings.ToLower(firstWordOf(trimmed))
	for _, v := range d.Keywords.TaskImperatives {
		if firstWord == strings.ToLower(v) {
			return model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.8, Tier: 2}, true
		}
	}
	lower := strings.ToLower(text)
	if containsAny(lower, d.Keywords.TaskImperatives) {
		return model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.8, Tier: 2}, true
	}
	return model.CategoryDecision{}, false
}

func (d Detector) tier3NoteIndicators(text string) (model.CategoryDecision, bool) {
	lower := strings.ToLower(text)
	if containsAny(lower, d.Keywords.NoteIndicators) {
		return model.CategoryDecision{Category: model.CategoryNote, Confidence: 0.75, Tier: 3}, true
	}
	return model.CategoryDecision{}, false
}

func (d Detector) tier4TaskIntent(text string) (model.CategoryDecision, bool) {
	lower := strings.ToLower(text)
	if containsAny(lower, d.Keywords.TaskIntentPhrases) {
		return model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.75, Tier: 4}, true
	}
	return model.CategoryDecision{}, false
}

// tier5CalendarKeywords classifies scheduling vocabulary as a task flagged
// for manual review; reserved for a future event workflow (spec.md §4.5
// Tier 5).
func (d Detector) tier5CalendarKeywords(text string) (model.CategoryDecision, bool) {
	lower := strings.ToLower(text)
	if containsAny(lower, d.Keywords.CalendarKeywords) {
		return model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.7, ManualReviewFlag: true, Tier: 5}, true
	}
	return model.CategoryDecision{}, false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func firstWordOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
}
