package resolver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/model"
)

func TestExtractProjectFindsMatchBeforeKeyword(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "projects.json"), time.Hour, 24*time.Hour, nil)
	require.NoError(t, c.Refresh(stubFetcher{records: []model.ProjectRecord{{Name: "Life Admin HQ"}}}))

	match := c.ExtractProject("Email plumber and call electrician. Life Admin HQ. Task",
		"task", []string{"task", "note", "project", "tasks", "notes", "projects"})
	assert.Equal(t, "Life Admin HQ", match.MatchedProjectName)
	assert.Greater(t, match.Confidence, 0.8)
}

func TestExtractProjectTaskAloneIsManualReview(t *testing.T) {
	// spec.md §8 invariant 14: project extraction of "task" alone -> no
	// match, manual review required.
	c := NewCatalog(filepath.Join(t.TempDir(), "projects.json"), time.Hour, 24*time.Hour, nil)
	require.NoError(t, c.Refresh(stubFetcher{records: []model.ProjectRecord{{Name: "Life Admin HQ"}}}))

	match := c.ExtractProject("task", "task", []string{"task", "note", "project", "tasks", "notes", "projects"})
	assert.Equal(t, model.MatchNone, match.MatchType)
	assert.Equal(t, 0.0, match.Confidence)
}

func TestExtractProjectNoCatalogMatchIsManualReview(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "projects.json"), time.Hour, 24*time.Hour, nil)
	require.NoError(t, c.Refresh(stubFetcher{records: []model.ProjectRecord{{Name: "Life Admin HQ"}}}))

	match := c.ExtractProject("Something entirely unrelated to any known project. Task", "task",
		[]string{"task", "note", "project", "tasks", "notes", "projects"})
	assert.NotEqual(t, model.MatchExactName, match.MatchType)
}
