package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recording_states.json")
	store := New(path, 7)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, doc.CurrentSession)

	id := NewSessionID(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	OpenSession(&doc, id, time.Now(), filepath.Join(dir, "Archives"), 7)
	doc.CurrentSession.RecordingsProcessed = append(doc.CurrentSession.RecordingsProcessed, "rec001.mp3")

	require.NoError(t, store.Save(doc))

	reloaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, reloaded.CurrentSession)
	assert.Equal(t, id, reloaded.CurrentSession.ID)
	assert.Equal(t, []string{"rec001.mp3"}, reloaded.CurrentSession.RecordingsProcessed)
}

func TestLoadCorruptStateReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recording_states.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := New(path, 7)
	doc, err := store.Load()
	assert.Error(t, err) // caller logs a warning and proceeds with the default
	assert.Nil(t, doc.CurrentSession)
}

func TestAlreadyProcessedMembership(t *testing.T) {
	now := time.Now()
	doc := Document{
		CurrentSession: &Session{RecordingsProcessed: []string{"a.mp3"}},
		PreviousSessions: []Session{
			{EndedAt: now.AddDate(0, 0, -3), ArchivedRecordings: []string{"/archives/b_session_x.mp3"}},
			{EndedAt: now.AddDate(0, 0, -30), ArchivedRecordings: []string{"/archives/c_session_y.mp3"}},
		},
	}

	assert.True(t, AlreadyProcessed(doc, "a.mp3", 7))
	assert.True(t, AlreadyProcessed(doc, "b_session_x.mp3", 7))
	assert.False(t, AlreadyProcessed(doc, "c_session_y.mp3", 7)) // outside retention window
	assert.False(t, AlreadyProcessed(doc, "nope.mp3", 7))
}

func TestFinalizeMovesCurrentSession(t *testing.T) {
	doc := Document{}
	OpenSession(&doc, "session_20260101_000000", time.Now(), "/archives", 7)
	Finalize(&doc, time.Now())

	assert.Nil(t, doc.CurrentSession)
	require.Len(t, doc.PreviousSessions, 1)
	assert.Equal(t, "session_20260101_000000", doc.PreviousSessions[0].ID)
}

func TestRetentionTrimDropsOldSessions(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "state.json"), 7)

	doc := Document{PreviousSessions: []Session{
		{ID: "old", EndedAt: time.Now().AddDate(0, 0, -10)},
		{ID: "recent", EndedAt: time.Now().AddDate(0, 0, -1)},
	}}

	require.NoError(t, store.Save(doc))
	reloaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, reloaded.PreviousSessions, 1)
	assert.Equal(t, "recent", reloaded.PreviousSessions[0].ID)
}
