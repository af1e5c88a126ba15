package resolver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/model"
)

func seededCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog(filepath.Join(t.TempDir(), "projects.json"), time.Hour, 24*time.Hour, nil)
	require.NoError(t, c.Refresh(stubFetcher{records: []model.ProjectRecord{
		{Name: "Life Admin HQ", Aliases: []string{"admin hq", "life admin"}},
		{Name: "Kitchen Remodel"},
	}}))
	return c
}

func TestMatchExactName(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("Life Admin HQ")
	assert.Equal(t, model.MatchExactName, m.MatchType)
	assert.Equal(t, 1.0, m.Confidence)
}

func TestMatchExactAlias(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("life admin")
	assert.Equal(t, model.MatchExactAlias, m.MatchType)
	assert.Equal(t, "Life Admin HQ", m.MatchedProjectName)
}

func TestMatchPartialName(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("Kitchen")
	assert.Equal(t, model.MatchPartialName, m.MatchType)
	assert.Equal(t, "Kitchen Remodel", m.MatchedProjectName)
}

func TestMatchFuzzyFallback(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("Kichen Remodell")
	assert.Equal(t, model.MatchFuzzy, m.MatchType)
	assert.Equal(t, "Kitchen Remodel", m.MatchedProjectName)
	assert.Greater(t, m.Confidence, 0.8)
}

func TestMatchNoneWhenNothingIsClose(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("xyz completely unrelated phrase")
	assert.NotEqual(t, model.MatchExactName, m.MatchType)
}

func TestMatchEmptyCandidate(t *testing.T) {
	c := seededCatalog(t)
	m := c.Match("   ")
	assert.Equal(t, model.MatchNone, m.MatchType)
}
