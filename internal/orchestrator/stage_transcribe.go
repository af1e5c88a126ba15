package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicepipe/internal/fileutil"
	"voicepipe/internal/logging"
	"voicepipe/internal/model"
	"voicepipe/internal/pipelineerr"
	"voicepipe/internal/staging"
	"voicepipe/internal/state"
	"voicepipe/internal/transcribe"
)

// stagedTranscript pairs one Stage 3 output with the original (unstaged)
// recorder-side AudioSource, so Stage 5's archiver can copy from the
// recorder rather than the transient staging copy (spec.md §4.9).
type stagedTranscript struct {
	Transcript model.Transcript
	Source     model.AudioSource
}

// runTranscribe implements Stage 3 (spec.md §4.3, §4.4): stage each valid
// file locally, plan duration-balanced batches, preflight the chain once
// per session, then run the worker pool batch by batch. A file the pool
// could not transcribe is recorded as a per-file failure; the stage never
// aborts the session over one bad file (spec.md §4.4.6 "per-file, not
// stage-fatal").
func (o *Orchestrator) runTranscribe(ctx context.Context, sess *state.Session, opts RunOptions, valid []model.AudioSource) []stagedTranscript {
	if opts.SkipSteps[StageTranscribe] || len(valid) == 0 {
		return nil
	}
	if o.chain == nil || o.pool == nil {
		sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{
			Stage: StageTranscribe, Reason: "no transcription backend configured",
		})
		return nil
	}

	staged := make([]model.AudioSource, 0, len(valid))
	originals := make(map[string]model.AudioSource, len(valid))
	var totalBytes int64
	for _, src := range valid {
		path, err := o.staging.Stage(ctx, src)
		if err != nil {
			sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: src.Path, Stage: StageTranscribe, Reason: err.Error()})
			continue
		}
		original := src
		src.Path = path
		staged = append(staged, src)
		originals[src.Stem()] = original
		totalBytes += src.SizeBytes
	}
	if len(staged) == 0 {
		return nil
	}

	if err := transcribe.PreflightCheck(ctx, o.chain, o.cfg.Paths.StagingDir, totalBytes,
		o.cfg.Transcription.MinDiskBufferMiB, o.cfg.Transcription.MinFreeRAMMiB); err != nil {
		o.logger.Error("transcription preflight failed",
			logging.String(logging.FieldEventType, "transcribe_preflight_failed"),
			logging.String(logging.FieldErrorKind, string(pipelineerr.Describe(err).Kind)),
			logging.Error(err))
		for _, src := range staged {
			sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: src.Path, Stage: StageTranscribe, Reason: err.Error()})
		}
		return nil
	}

	batches := transcribe.PlanBatches(staged, transcribe.BatchPlan{
		WorkBudgetMinutes: o.cfg.Transcription.BatchWorkBudgetMin,
		MaxFiles:          o.cfg.Transcription.BatchMaxFiles,
		MinFiles:          o.cfg.Transcription.BatchMinFiles,
	})

	var transcripts []stagedTranscript
	var successCount, failCount int
	for i, batch := range batches {
		batchStart := time.Now()
		outcomes := o.pool.Run(ctx, i, batch)
		o.metrics.ObserveBatchDuration(time.Since(batchStart))
		for _, outcome := range outcomes {
			original, known := originals[outcome.Source.Stem()]
			if !known {
				original = outcome.Source
			}
			if outcome.Err != nil {
				failCount++
				reason := describeTranscribeErr(outcome.Err)
				sess.FailedTranscriptions = append(sess.FailedTranscriptions, original.Path)
				sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{
					Path: original.Path, Stage: StageTranscribe, Reason: reason,
				})
				o.quarantineFailedRecording(ctx, sess.ID, original.Path, reason)
				continue
			}
			successCount++
			sess.RecordingsProcessed = append(sess.RecordingsProcessed, original.Path)
			sess.TranscriptsCreated = append(sess.TranscriptsCreated, outcome.Transcript.Path)
			transcripts = append(transcripts, stagedTranscript{Transcript: outcome.Transcript, Source: original})
		}
	}

	total := successCount + failCount
	summary := state.StageSummary{Total: total, Successful: successCount, Failed: failCount}
	if total > 0 {
		summary.SuccessRate = float64(successCount) / float64(total)
	}
	sess.StageSummaries[StageTranscribe] = summary
	o.metrics.AddTranscribed(successCount)
	o.metrics.AddFailed(failCount)
	return transcripts
}

func describeTranscribeErr(err error) string {
	details := pipelineerr.Describe(err)
	if details.Fatal {
		return fmt.Sprintf("fatal [%s]: %s", details.Kind, details.Message)
	}
	return fmt.Sprintf("[%s] %s", details.Kind, details.Message)
}

// quarantineFailedRecording moves a source file that exhausted the retry
// budget to Failed/failed_recordings/ and drops a one-line reason next to
// it under Failed/failure_logs/, so an operator can find and re-stage it
// without combing through session logs (spec.md §4.4 "move the source to
// Failed/failed_recordings/").
func (o *Orchestrator) quarantineFailedRecording(ctx context.Context, sessionID, sourcePath, reason string) {
	if sourcePath == "" {
		return
	}
	name := filepath.Base(sourcePath)
	dest := filepath.Join(o.cfg.Paths.FailedDir, "failed_recordings", name)
	if err := fileutil.CopyFileVerified(sourcePath, dest); err != nil {
		o.logger.Warn("failed to quarantine unrecoverable recording",
			logging.String(logging.FieldAudioPath, sourcePath),
			logging.Error(err),
			logging.String(logging.FieldEventType, "quarantine_failed"),
			logging.String(logging.FieldErrorHint, "check failed_dir permissions"),
			logging.String(logging.FieldImpact, "source left in place, not quarantined"))
		return
	}
	staging.SafeDelete(ctx, sourcePath, o.logger)

	logPath := filepath.Join(o.cfg.Paths.FailedDir, "failure_logs", name+".log")
	entry := fmt.Sprintf("%s\tsession=%s\t%s\n", time.Now().UTC().Format(time.RFC3339), sessionID, reason)
	if err := os.WriteFile(logPath, []byte(entry), 0o644); err != nil {
		o.logger.Debug("failed to write failure log",
			logging.String("path", logPath), logging.Error(err))
	}
}
