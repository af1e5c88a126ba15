package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRecordDeletesAudioAndTranscriptWhenSizesMatch(t *testing.T) {
	dir := t.TempDir()
	content := []byte("audio bytes")
	src := writeTempFile(t, dir, "rec.mp3", content)
	archived := writeTempFile(t, dir, "rec_archived.mp3", content)
	transcript := writeTempFile(t, dir, "rec.txt", []byte("transcript"))

	c := NewCleaner(nil)
	outcome := c.CleanRecord(context.Background(), RecordCleanup{
		SourceAudioPath:      src,
		SourceTranscriptPath: transcript,
		ArchivedPath:         archived,
		SourceSizeBytes:      int64(len(content)),
	})

	assert.True(t, outcome.AudioDeleted)
	assert.True(t, outcome.TranscriptDeleted)
	assert.Empty(t, outcome.Failures)

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(transcript)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanRecordRetainsSourceOnSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	content := []byte("audio bytes")
	src := writeTempFile(t, dir, "rec.mp3", content)
	archived := writeTempFile(t, dir, "rec_archived.mp3", []byte("shorter"))

	c := NewCleaner(nil)
	outcome := c.CleanRecord(context.Background(), RecordCleanup{
		SourceAudioPath: src,
		ArchivedPath:    archived,
		SourceSizeBytes: int64(len(content)),
	})

	assert.False(t, outcome.AudioDeleted)
	require.NotEmpty(t, outcome.Failures)

	_, err := os.Stat(src)
	assert.NoError(t, err)
}

func TestCleanRecordRetainsSourceWhenNoArchivedCopy(t *testing.T) {
	dir := t.TempDir()
	src := writeTempFile(t, dir, "rec.mp3", []byte("audio"))

	c := NewCleaner(nil)
	outcome := c.CleanRecord(context.Background(), RecordCleanup{SourceAudioPath: src})

	assert.False(t, outcome.AudioDeleted)
	require.NotEmpty(t, outcome.Failures)
}

func TestPurgeOldArchivesRemovesExpiredDateFolders(t *testing.T) {
	root := t.TempDir()
	oldDir := filepath.Join(root, "2020-01-01")
	newDir := filepath.Join(root, time.Now().Format("2006-01-02"))
	require.NoError(t, os.MkdirAll(oldDir, 0o755))
	require.NoError(t, os.MkdirAll(newDir, 0o755))

	c := NewCleaner(nil)
	purged, err := c.PurgeOldArchives(root, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Contains(t, purged, oldDir)

	_, err = os.Stat(oldDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newDir)
	assert.NoError(t, err)
}

func TestPurgeOldArchivesMissingRootIsNoop(t *testing.T) {
	c := NewCleaner(nil)
	purged, err := c.PurgeOldArchives(filepath.Join(t.TempDir(), "missing"), time.Hour)
	require.NoError(t, err)
	assert.Empty(t, purged)
}
