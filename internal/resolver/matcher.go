package resolver

import (
	"strings"

	"voicepipe/internal/model"
	"voicepipe/internal/textutil"
)

// FuzzyThreshold is the minimum confidence a fuzzy (non-exact) match must
// reach to be accepted outright (spec.md §4.6 step 3).
const FuzzyThreshold = 0.95

// Match runs the five-level fuzzy matcher against the catalog for a single
// candidate phrase (spec.md §4.6):
//  1. exact project name
//  2. exact alias
//  3. partial name overlap (candidate is a substring of, or contains, a
//     project name)
//  4. partial alias overlap
//  5. LCS-ratio fuzzy similarity
func (c *Catalog) Match(candidate string) model.FuzzyMatch {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return model.FuzzyMatch{MatchType: model.MatchNone, SourceString: candidate}
	}

	if p, ok := c.lookupExactName(candidate); ok {
		return model.FuzzyMatch{MatchedProjectName: p.Name, MatchedPageID: p.PageID, Confidence: 1.0, MatchType: model.MatchExactName, SourceString: candidate}
	}
	if p, ok := c.lookupExactAlias(candidate); ok {
		return model.FuzzyMatch{MatchedProjectName: p.Name, MatchedPageID: p.PageID, Confidence: 1.0, MatchType: model.MatchExactAlias, SourceString: candidate}
	}

	lowerCandidate := strings.ToLower(candidate)
	if best, ok := c.bestPartialMatch(lowerCandidate, false); ok {
		return best
	}
	if best, ok := c.bestPartialMatch(lowerCandidate, true); ok {
		return best
	}

	return c.bestFuzzyMatch(candidate)
}

func (c *Catalog) bestPartialMatch(lowerCandidate string, alias bool) (model.FuzzyMatch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best model.FuzzyMatch
	found := false

	check := func(name, pageID, against string) {
		if against == "" {
			return
		}
		if strings.Contains(against, lowerCandidate) || strings.Contains(lowerCandidate, against) {
			confidence := partialConfidence(lowerCandidate, against)
			if !found || confidence > best.Confidence {
				mt := model.MatchPartialName
				if alias {
					mt = model.MatchPartialAlias
				}
				best = model.FuzzyMatch{MatchedProjectName: name, MatchedPageID: pageID, Confidence: confidence, MatchType: mt, SourceString: lowerCandidate}
				found = true
			}
		}
	}

	if alias {
		for aliasKey, name := range c.aliases {
			check(name, c.projects[strings.ToLower(name)].PageID, aliasKey)
		}
	} else {
		for key, p := range c.projects {
			check(p.Name, p.PageID, key)
		}
	}
	return best, found
}

// partialConfidence scores a substring overlap by the ratio of overlap
// length to the longer string's length.
func partialConfidence(a, b string) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if longer == 0 {
		return 0
	}
	return float64(shorter) / float64(longer)
}

func (c *Catalog) bestFuzzyMatch(candidate string) model.FuzzyMatch {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best model.FuzzyMatch
	for _, p := range c.projects {
		ratio := textutil.LCSRatio(candidate, p.Name)
		if ratio > best.Confidence {
			best = model.FuzzyMatch{MatchedProjectName: p.Name, Confidence: ratio, MatchType: model.MatchFuzzy, SourceString: candidate}
		}
	}
	if best.Confidence == 0 {
		return model.FuzzyMatch{MatchType: model.MatchNone, SourceString: candidate}
	}
	return best
}
