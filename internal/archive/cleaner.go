package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"voicepipe/internal/logging"
	"voicepipe/internal/staging"
)

// Cleaner deletes verified source audio and transcript intermediates, and
// periodically purges archive folders past the retention window
// (spec.md §4.9).
type Cleaner struct {
	Logger *slog.Logger
}

// NewCleaner builds a Cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cleaner{Logger: logging.NewComponentLogger(logger, "cleanup")}
}

// RecordCleanup is one archived record's cleanup inputs.
type RecordCleanup struct {
	SourceAudioPath      string
	SourceTranscriptPath string
	ArchivedPath         string
	ArchivedSizeBytes    int64
	SourceSizeBytes      int64
}

// Outcome reports what happened for one record.
type Outcome struct {
	AudioDeleted      bool
	TranscriptDeleted bool
	Failures          []string
}

// CleanRecord deletes the source audio (only if the archived copy exists
// and is size-equal) and the transcript file, tracking per-file failures
// without aborting the batch (spec.md §4.9 "For each successfully
// archived record").
func (c *Cleaner) CleanRecord(ctx context.Context, rec RecordCleanup) Outcome {
	var out Outcome

	if rec.ArchivedPath == "" {
		out.Failures = append(out.Failures, "no archived copy, source audio retained")
	} else if info, err := os.Stat(rec.ArchivedPath); err != nil {
		out.Failures = append(out.Failures, "archived copy missing: "+err.Error())
	} else if info.Size() != rec.SourceSizeBytes {
		out.Failures = append(out.Failures, "archived copy size mismatch, source audio retained")
	} else if !staging.SafeDelete(ctx, rec.SourceAudioPath, c.Logger) {
		out.Failures = append(out.Failures, "safe-delete chain exhausted for source audio")
	} else {
		out.AudioDeleted = true
	}

	if rec.SourceTranscriptPath != "" {
		if err := os.Remove(rec.SourceTranscriptPath); err != nil && !os.IsNotExist(err) {
			out.Failures = append(out.Failures, "transcript delete failed: "+err.Error())
		} else {
			out.TranscriptDeleted = true
		}
	}

	return out
}

// PurgeOldArchives removes Archives/YYYY-MM-DD folders older than
// retention (spec.md §4.9 "Periodically... purge archive folders").
func (c *Cleaner) PurgeOldArchives(archiveRoot string, retention time.Duration) ([]string, error) {
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := time.Now().Add(-retention)
	var purged []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dateDir := filepath.Join(archiveRoot, entry.Name())
		parsed, err := time.Parse("2006-01-02", entry.Name())
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			if err := os.RemoveAll(dateDir); err != nil {
				c.Logger.Warn("failed to purge expired archive folder",
					logging.String("path", dateDir), logging.Error(err),
					logging.String(logging.FieldEventType, "archive_purge_failed"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"))
				continue
			}
			purged = append(purged, dateDir)
			c.Logger.Info("purged expired archive folder",
				logging.String("path", dateDir),
				logging.String(logging.FieldEventType, "archive_purged"))
		}
	}
	return purged, nil
}
