// Package model holds the data types shared across pipeline stages, as
// specified in spec.md §3. Keeping them in one leaf package (rather than
// letting each stage define its own view) mirrors the teacher's
// internal/queue.Item as the one shared record every stage reads and
// mutates.
package model

import "time"

// Category is the task/note classification produced by the transcript
// parser (spec.md §4.5).
type Category string

const (
	CategoryTask Category = "task"
	CategoryNote Category = "note"
)

// DurationCategory buckets a task's estimated effort (spec.md §4.7).
type DurationCategory string

const (
	DurationQuick  DurationCategory = "QUICK"
	DurationMedium DurationCategory = "MEDIUM"
	DurationLong   DurationCategory = "LONG"
)

// MatchType identifies which fuzzy-matcher level produced a FuzzyMatch
// (spec.md §4.6).
type MatchType string

const (
	MatchExactName    MatchType = "exact_name"
	MatchExactAlias   MatchType = "exact_alias"
	MatchPartialName  MatchType = "partial_name"
	MatchPartialAlias MatchType = "partial_alias"
	MatchFuzzy        MatchType = "fuzzy"
	MatchNone         MatchType = "none"
)

// AudioSource describes one candidate recording discovered on removable
// media (spec.md §3).
type AudioSource struct {
	Path             string
	SizeBytes        int64
	EstimatedMinutes float64
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// Stem returns the filename without extension, used as the key for
// duplicate-avoidance and staged-file reuse (spec.md §4.3, §4.4.3).
func (a AudioSource) Stem() string {
	return stemOf(a.Path)
}

// Transcript is the text output of Stage 3 for one audio file.
type Transcript struct {
	AudioStem string
	Text      string
	Path      string
	WordCount int
}

// CategoryDecision is the five-tier detector's verdict for one transcript
// (spec.md §3, §4.5).
type CategoryDecision struct {
	Category          Category
	Confidence        float64
	ManualReviewFlag  bool
	Tier              int
	MultiTaskSegments []string
}

// AnalysisRecord is the output of Stage 4 for one transcript, or one
// sub-task of a multi-task transcript (spec.md §3).
type AnalysisRecord struct {
	Category         Category
	Title            string
	Icon             string
	Content          string
	ProjectName      string
	ProjectPageID    string
	Tags             []string
	DueDate          time.Time
	DurationCategory DurationCategory
	Confidence       float64
	PreservedFlag    bool
	AIEnhanced       bool
	WordCount        int
	ManualReviewFlag bool
	Metadata         map[string]string
	StoreEntryID     string

	// SourceAudioPath / SourceTranscriptPath carry provenance through to
	// Stages 5-6 without requiring a second lookup against the session
	// state.
	SourceAudioPath      string
	SourceTranscriptPath string
}

// FuzzyMatch is the resolver's ranked candidate result. It is never
// persisted (spec.md §3).
type FuzzyMatch struct {
	MatchedProjectName string
	MatchedPageID      string
	Confidence         float64
	MatchType          MatchType
	SourceString       string
}

// ProjectRecord is one entry in the catalog's `projects` map.
type ProjectRecord struct {
	Name    string
	PageID  string
	Status  string
	Aliases []string
}

func stemOf(path string) string {
	base := path
	for i := len(base) - 1; i >= 0; i-- {
		switch base[i] {
		case '/':
			base = base[i+1:]
			i = -1
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
