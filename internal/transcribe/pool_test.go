package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/model"
)

func TestPoolProcessesAllFilesSuccessfully(t *testing.T) {
	transcriptsDir := t.TempDir()
	backend := &stubBackend{name: "local", available: true, text: "a transcript with enough words"}
	chain := NewChain(context.Background(), backend)

	pool := &Pool{Size: 2, Chain: chain, TranscriptsDir: transcriptsDir}
	batch := Batch{Files: []model.AudioSource{
		{Path: "/rec/a.mp3", EstimatedMinutes: 1},
		{Path: "/rec/b.mp3", EstimatedMinutes: 1},
	}}

	outcomes := pool.Run(context.Background(), 0, batch)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		assert.NotEmpty(t, o.Transcript.Text)
	}
}

func TestPoolRetriesOnceThenFails(t *testing.T) {
	backend := &stubBackend{name: "local", available: true, err: assertErr("transient failure")}
	chain := NewChain(context.Background(), backend)

	pool := &Pool{Size: 1, Chain: chain, TranscriptsDir: t.TempDir()}
	batch := Batch{Files: []model.AudioSource{{Path: "/rec/a.mp3", EstimatedMinutes: 1}}}

	outcomes := pool.Run(context.Background(), 0, batch)
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	assert.Equal(t, 2, backend.calls) // one attempt + one retry
}

func TestPoolSkipListPreventsRetry(t *testing.T) {
	backend := &stubBackend{name: "local", available: true, err: assertErr("permission denied reading file")}
	chain := NewChain(context.Background(), backend)

	pool := &Pool{
		Size:           1,
		Chain:          chain,
		TranscriptsDir: t.TempDir(),
		SkipPatterns:   SkipRetryPatterns{"permission", "transcript too short"},
	}
	batch := Batch{Files: []model.AudioSource{{Path: "/rec/a.mp3", EstimatedMinutes: 1}}}

	outcomes := pool.Run(context.Background(), 0, batch)
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	assert.Equal(t, 1, backend.calls) // no retry: permission matched the skip list
}

func TestPoolReusesDuplicateTranscript(t *testing.T) {
	transcriptsDir := t.TempDir()
	existingPath := filepath.Join(transcriptsDir, "a.txt")
	require.NoError(t, os.WriteFile(existingPath, []byte("already transcribed content here"), 0o644))

	backend := &stubBackend{name: "local", available: true}
	chain := NewChain(context.Background(), backend)

	pool := &Pool{Size: 1, Chain: chain, TranscriptsDir: transcriptsDir, DuplicateMaxAge: time.Hour}
	batch := Batch{Files: []model.AudioSource{{Path: "/rec/a.mp3", EstimatedMinutes: 1}}}

	outcomes := pool.Run(context.Background(), 0, batch)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Skipped)
	assert.Equal(t, 0, backend.calls) // never invoked
}

func TestPoolDuplicateTooOldIsNotReused(t *testing.T) {
	transcriptsDir := t.TempDir()
	existingPath := filepath.Join(transcriptsDir, "a.txt")
	require.NoError(t, os.WriteFile(existingPath, []byte("stale content here"), 0o644))
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(existingPath, oldTime, oldTime))

	backend := &stubBackend{name: "local", available: true, text: "fresh transcript content"}
	chain := NewChain(context.Background(), backend)

	pool := &Pool{Size: 1, Chain: chain, TranscriptsDir: transcriptsDir, DuplicateMaxAge: time.Hour}
	batch := Batch{Files: []model.AudioSource{{Path: "/rec/a.mp3", EstimatedMinutes: 1}}}

	outcomes := pool.Run(context.Background(), 0, batch)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Skipped)
	assert.Equal(t, 1, backend.calls)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
