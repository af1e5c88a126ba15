package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultIcon is used when no keyword pattern matches any of the three
// tiers (spec.md §4.7).
const DefaultIcon = "⁉️"

// IconRule pairs a keyword with the emoji it selects. Patterns are
// compiled once with word boundaries; the longest keyword wins ties.
type IconRule struct {
	Keyword string
	Icon    string
}

// DefaultIconRules is the built-in keyword-to-emoji mapping the orchestrator
// installs; no JSON mapping file is read.
func DefaultIconRules() []IconRule {
	return []IconRule{
		{Keyword: "call", Icon: "📞"},
		{Keyword: "email", Icon: "📧"},
		{Keyword: "buy", Icon: "🛒"},
		{Keyword: "pay", Icon: "💳"},
		{Keyword: "clean", Icon: "🧹"},
		{Keyword: "fix", Icon: "🔧"},
		{Keyword: "doctor", Icon: "🏥"},
		{Keyword: "meeting", Icon: "📅"},
		{Keyword: "read", Icon: "📖"},
		{Keyword: "write", Icon: "✍️"},
	}
}

// IconSelector matches pre-compiled, longest-keyword-first patterns
// against content, falling back from content to title to a simplified
// project name (spec.md §4.7).
type IconSelector struct {
	rules    []compiledRule
	Default  string
}

type compiledRule struct {
	pattern *regexp.Regexp
	keyword string
	icon    string
}

// NewIconSelector compiles rules once at startup, longest keyword first so
// the first match encountered is always the most specific.
func NewIconSelector(rules []IconRule, defaultIcon string) *IconSelector {
	sorted := append([]IconRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Keyword) > len(sorted[j].Keyword)
	})

	compiled := make([]compiledRule, 0, len(sorted))
	for _, r := range sorted {
		if r.Keyword == "" {
			continue
		}
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.Keyword) + `\b`)
		compiled = append(compiled, compiledRule{pattern: pattern, keyword: r.Keyword, icon: r.Icon})
	}

	if defaultIcon == "" {
		defaultIcon = DefaultIcon
	}
	return &IconSelector{rules: compiled, Default: defaultIcon}
}

// Select runs the three-tier fallback: content, then title, then a
// simplified project name.
func (s *IconSelector) Select(content, title, projectName string) string {
	if icon, ok := s.match(content); ok {
		return icon
	}
	if icon, ok := s.match(title); ok {
		return icon
	}
	if icon, ok := s.match(simplifyProjectName(projectName)); ok {
		return icon
	}
	return s.Default
}

func (s *IconSelector) match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, r := range s.rules {
		if r.pattern.MatchString(text) {
			return r.icon, true
		}
	}
	return "", false
}

var projectNameAffixes = []string{"the ", " project", " hq", " initiative"}

// simplifyProjectName strips known prefixes/suffixes so a project name
// like "The Kitchen Remodel Project" still offers "kitchen remodel" to the
// icon matcher (spec.md §4.7 tier 3).
func simplifyProjectName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, affix := range projectNameAffixes {
		lower = strings.TrimPrefix(lower, affix)
		lower = strings.TrimSuffix(lower, affix)
	}
	return strings.TrimSpace(lower)
}
