package orchestrator

import (
	"context"
	"os"
	"time"

	"voicepipe/internal/archive"
	"voicepipe/internal/logging"
	"voicepipe/internal/state"
)

// runCleanup implements Stage 6 (spec.md §4.9): delete source audio and
// transcripts for every successfully archived record, wipe the staging
// directory, and sweep archive folders past the retention window. Per-file
// failures are tracked in CleanupFailures without aborting the batch
// (spec.md §4.9 "(3) track per-file failures without aborting the batch").
func (o *Orchestrator) runCleanup(ctx context.Context, sess *state.Session, opts RunOptions, records []archivedRecord) {
	if opts.SkipSteps[StageCleanup] {
		return
	}

	for _, ar := range records {
		sourceSize := ar.Record.Source.SizeBytes
		outcome := o.cleaner.CleanRecord(ctx, archive.RecordCleanup{
			SourceAudioPath:      ar.Record.Source.Path,
			SourceTranscriptPath: ar.Record.Record.SourceTranscriptPath,
			ArchivedPath:         ar.Archived.ArchivedPath,
			SourceSizeBytes:      sourceSize,
		})
		for _, failure := range outcome.Failures {
			sess.CleanupFailures = append(sess.CleanupFailures, failure)
		}
	}

	if err := o.staging.CleanSession(ctx); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("failed to wipe staging directory",
			logging.String(logging.FieldEventType, "staging_wipe_failed"),
			logging.Error(err))
	}

	retention := time.Duration(o.cfg.Paths.RetentionDays) * 24 * time.Hour
	purged, err := o.cleaner.PurgeOldArchives(o.cfg.Paths.ArchiveDir, retention)
	if err != nil {
		o.logger.Warn("failed to purge stale archive folders",
			logging.String(logging.FieldEventType, "archive_purge_failed"),
			logging.Error(err))
	} else if len(purged) > 0 {
		o.logger.Info("purged expired archive folders",
			logging.String(logging.FieldEventType, "archive_purged"),
			logging.Int("count", len(purged)))
	}
}
