package orchestrator

import (
	"context"

	"voicepipe/internal/archive"
	"voicepipe/internal/logging"
	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/state"
)

// archivedRecord is one Stage 5 output carried into Stage 6.
type archivedRecord struct {
	Record   analyzedRecord
	Archived archive.Result
}

// runVerifyArchive implements Stage 5 (spec.md §4.9): confirm the written
// store page is retrievable and not archived, then copy the source audio
// into the dated archive folder. A record that fails verification is never
// archived, and its source audio is left untouched on the recorder
// (spec.md §4.9 "any miss... means the record is NOT archived").
func (o *Orchestrator) runVerifyArchive(ctx context.Context, sess *state.Session, opts RunOptions, records []analyzedRecord) ([]archivedRecord, int64) {
	if opts.SkipSteps[StageVerifyArchive] || len(records) == 0 {
		return nil, 0
	}

	targetDir := sess.ArchivePlan.TargetFolder
	var out []archivedRecord
	var successCount, failCount int
	var bytesArchived int64
	for _, ar := range records {
		ok, err := o.verifier.Verify(ctx, ar.Record.StoreEntryID)
		if err != nil || !ok {
			failCount++
			reason := "verification miss"
			if err != nil {
				reason = err.Error()
			}
			sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: ar.Source.Path, Stage: StageVerifyArchive, Reason: reason})
			o.logger.Warn("store entry failed verification, source audio retained",
				logging.String(logging.FieldEventType, "verify_miss"),
				logging.String("store_entry_id", ar.Record.StoreEntryID))
			continue
		}

		result, err := o.archiver.Archive(ctx, ar.Source, sess.ID, targetDir, false)
		if err != nil {
			failCount++
			sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: ar.Source.Path, Stage: StageVerifyArchive, Reason: err.Error()})
			o.logger.Warn("archive copy did not verify, record left unarchived",
				logging.Alert("archive_integrity"),
				logging.String(logging.FieldAudioPath, ar.Source.Path),
				logging.String(logging.FieldErrorKind, string(pipelineerr.Describe(err).Kind)),
				logging.Error(err),
				logging.String(logging.FieldEventType, "archive_failed"),
				logging.String(logging.FieldErrorHint, "check disk space and archive_dir permissions"),
				logging.String(logging.FieldImpact, "source audio retained, not archived"))
			continue
		}

		successCount++
		bytesArchived += ar.Source.SizeBytes
		sess.ArchivedRecordings = append(sess.ArchivedRecordings, result.ArchivedPath)
		out = append(out, archivedRecord{Record: ar, Archived: result})
	}

	total := successCount + failCount
	summary := state.StageSummary{Total: total, Successful: successCount, Failed: failCount}
	if total > 0 {
		summary.SuccessRate = float64(successCount) / float64(total)
	}
	sess.StageSummaries[StageVerifyArchive] = summary
	sess.CleanupReady = successCount > 0
	return out, bytesArchived
}
