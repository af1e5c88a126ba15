package analyzer

import (
	"context"
	"strings"
	"time"

	"voicepipe/internal/llmclient"
	"voicepipe/internal/model"
	"voicepipe/internal/parser"
	"voicepipe/internal/resolver"
)

// Options configures a single Analyze call (spec.md §4.7).
type Options struct {
	LLM                   *llmclient.Client
	Catalog               *resolver.Catalog
	TagRules              []TagRule
	Icons                 *IconSelector
	IgnoredProjectTokens  []string
	PreservationThreshold int
	Now                   time.Time
}

// Analyze turns one classified transcript into one or more AnalysisRecords
// (spec.md §3, §4.5-§4.7). Multi-task transcripts yield a slice whose
// order matches the textual order of their "task" markers.
func Analyze(ctx context.Context, transcriptText string, decision model.CategoryDecision, opts Options) []model.AnalysisRecord {
	if decision.Category == model.CategoryTask {
		if subTasks := parser.SplitMultiTask(transcriptText); len(subTasks) > 0 {
			records := make([]model.AnalysisRecord, 0, len(subTasks))
			project := opts.resolveProject(transcriptText, "task")
			for _, sub := range subTasks {
				records = append(records, opts.buildRecord(ctx, sub, decision, project))
			}
			return records
		}
	}

	keyword := "note"
	if decision.Category == model.CategoryTask {
		keyword = "task"
	}
	project := opts.resolveProject(transcriptText, keyword)
	return []model.AnalysisRecord{opts.buildRecord(ctx, transcriptText, decision, project)}
}

func (o Options) resolveProject(text, keyword string) model.FuzzyMatch {
	if o.Catalog == nil {
		return model.FuzzyMatch{MatchType: model.MatchNone}
	}
	return o.Catalog.ExtractProject(text, keyword, o.IgnoredProjectTokens)
}

func (o Options) buildRecord(ctx context.Context, text string, decision model.CategoryDecision, project model.FuzzyMatch) model.AnalysisRecord {
	wordCount := len(strings.Fields(text))
	preserved := parser.ShouldPreserve(wordCount, o.PreservationThreshold)
	manualReview := decision.ManualReviewFlag

	var content string
	var formatConfidence float64
	aiEnhanced := false

	switch {
	case preserved:
		content = parser.PreservedContent(text)
		formatConfidence = 1.0
	case decision.Category == model.CategoryNote:
		result := FormatNote(text)
		content = result.Content
		formatConfidence = result.Confidence
	default:
		result := FormatTask(ctx, o.LLM, text)
		content = result.Content
		formatConfidence = result.Confidence
		aiEnhanced = o.LLM != nil && o.LLM.Available()
	}

	titleSource := text
	if preserved {
		titleSource = content
	}
	title := GenerateTitle(ctx, o.LLM, decision.Category, titleSource)

	icon := DefaultIcon
	if o.Icons != nil {
		icon = o.Icons.Select(content, title, project.MatchedProjectName)
	}

	tags := DetectTags(text, o.TagRules)

	record := model.AnalysisRecord{
		Category:         decision.Category,
		Title:            title,
		Icon:             icon,
		Content:          content,
		ProjectName:      project.MatchedProjectName,
		ProjectPageID:    project.MatchedPageID,
		Tags:             tags,
		DurationCategory: model.DurationMedium,
		Confidence:       minConfidence(decision.Confidence, formatConfidence),
		PreservedFlag:    preserved,
		AIEnhanced:       aiEnhanced,
		WordCount:        wordCount,
		ManualReviewFlag: manualReview || project.MatchType == model.MatchNone,
	}

	if decision.Category == model.CategoryTask {
		now := o.Now
		if now.IsZero() {
			now = time.Now()
		}
		estimate := EstimateDuration(ctx, o.LLM, now, content)
		record.DurationCategory = estimate.Category
		record.DueDate = estimate.DueDate
	}

	return record
}

func minConfidence(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
