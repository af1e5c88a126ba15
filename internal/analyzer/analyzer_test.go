package analyzer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/model"
	"voicepipe/internal/resolver"
)

type stubFetcher struct{ records []model.ProjectRecord }

func (s stubFetcher) FetchProjects() ([]model.ProjectRecord, error) { return s.records, nil }

func seededOptions(t *testing.T) Options {
	t.Helper()
	catalog := resolver.NewCatalog(filepath.Join(t.TempDir(), "projects.json"), time.Hour, 24*time.Hour, nil)
	require.NoError(t, catalog.Refresh(stubFetcher{records: []model.ProjectRecord{{Name: "Life Admin HQ"}}}))

	return Options{
		Catalog:               catalog,
		TagRules:              DefaultTagRules(),
		Icons:                 NewIconSelector(DefaultIconRules(), DefaultIcon),
		IgnoredProjectTokens:  []string{"task", "note", "project", "tasks", "notes", "projects"},
		PreservationThreshold: 800,
		Now:                   time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeSingleTaskRecord(t *testing.T) {
	opts := seededOptions(t)
	decision := model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.9, Tier: 1}
	records := Analyze(context.Background(), "Call the plumber about the leak. Life Admin HQ. Task", decision, opts)

	require.Len(t, records, 1)
	assert.Equal(t, model.CategoryTask, records[0].Category)
	assert.Equal(t, "Life Admin HQ", records[0].ProjectName)
}

func TestAnalyzeMultiTaskProducesOrderedRecords(t *testing.T) {
	opts := seededOptions(t)
	decision := model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.9, Tier: 1}
	text := "Email plumber. Task. Call electrician. Task. Life Admin HQ. Task"
	records := Analyze(context.Background(), text, decision, opts)

	require.Len(t, records, 2)
	assert.True(t, strings.Contains(strings.ToLower(records[0].Content), "plumber") || strings.Contains(strings.ToLower(records[0].Title), "plumber"))
	assert.Equal(t, "Life Admin HQ", records[0].ProjectName)
	assert.Equal(t, "Life Admin HQ", records[1].ProjectName)
}

func TestAnalyzePreservedLongNote(t *testing.T) {
	opts := seededOptions(t)
	opts.PreservationThreshold = 5
	decision := model.CategoryDecision{Category: model.CategoryNote, Confidence: 1.0, Tier: 0}
	text := "one two three four five six seven eight nine ten."
	records := Analyze(context.Background(), text, decision, opts)

	require.Len(t, records, 1)
	assert.True(t, records[0].PreservedFlag)
	assert.Equal(t, "one two three four five six seven eight nine ten", records[0].Content)
}

func TestAnalyzeNoProjectMatchFlagsManualReview(t *testing.T) {
	opts := seededOptions(t)
	decision := model.CategoryDecision{Category: model.CategoryTask, Confidence: 0.8, Tier: 2}
	records := Analyze(context.Background(), "task", decision, opts)

	require.Len(t, records, 1)
	assert.True(t, records[0].ManualReviewFlag)
}
