package analyzer

import "strings"

// TagRule maps a verb/keyword set plus a companion indicator set onto a
// store-facing tag value (spec.md §4.7). Value is emitted verbatim
// (including any emoji prefix) so the store never drifts.
type TagRule struct {
	Value       string
	Verbs       []string
	Indicators  []string
	RequireBoth bool
}

// DefaultTagRules mirrors the two built-in examples from spec.md §4.7.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{
			Value:       "📞 communications",
			Verbs:       []string{"call", "email", "text", "message"},
			Indicators:  []string{"parents", "team", "client", "boss", "manager"},
			RequireBoth: true,
		},
		{
			Value:      "🤝 needs-input-from-partner",
			Verbs:      []string{"home remodel", "baby", "major decision", "joint account"},
			RequireBoth: false,
		},
	}
}

// DetectTags runs every configured rule against text and returns the
// matched tag values in rule order.
func DetectTags(text string, rules []TagRule) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, rule := range rules {
		if ruleMatches(lower, rule) {
			tags = append(tags, rule.Value)
		}
	}
	return tags
}

func ruleMatches(lower string, rule TagRule) bool {
	hasVerb := containsAnyOf(lower, rule.Verbs)
	if !rule.RequireBoth {
		return hasVerb
	}
	return hasVerb && containsAnyOf(lower, rule.Indicators)
}

func containsAnyOf(haystack string, needles []string) bool {
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
