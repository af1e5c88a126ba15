package orchestrator

import (
	"path/filepath"

	"voicepipe/internal/detect"
	"voicepipe/internal/logging"
	"voicepipe/internal/model"
	"voicepipe/internal/state"
)

// runDetect implements Stage 1 (spec.md §4.2): scan the recorder mount for
// candidate files, excluding anything the session state already marks
// processed. A session is opened by the caller only when this returns at
// least one source (spec.md §4.2 "a session is opened if and only if").
func (o *Orchestrator) runDetect(doc state.Document) ([]model.AudioSource, error) {
	isProcessed := func(fileName string) bool {
		return state.AlreadyProcessed(doc, fileName, o.cfg.Paths.RetentionDays)
	}
	sources, err := detect.Scan(o.cfg.Recorder.MountPath, isProcessed)
	if err != nil {
		o.logger.Error("detect stage failed",
			logging.String(logging.FieldEventType, "detect_failed"),
			logging.Error(err))
		return nil, err
	}
	o.metrics.AddDetected(len(sources))
	return sources, nil
}

// runValidatePlan implements the file-validity half of Stage 2
// (spec.md §4.2): every candidate is checked for existence, size,
// extension, a readable header, and duration bounds. Batching (the
// "plan" half) happens inside runTranscribe, once staging has copied each
// valid file locally.
func (o *Orchestrator) runValidatePlan(sess *state.Session, sources []model.AudioSource) ([]model.AudioSource, map[string]detect.Reason) {
	valid, rejected := o.validator.ValidateAll(sources)

	summary := state.StageSummary{Total: len(sources), Successful: len(valid), Failed: len(rejected)}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Successful) / float64(summary.Total)
	}
	sess.StageSummaries[StageValidatePlan] = summary

	for path, reason := range rejected {
		o.logger.Warn("rejected candidate file",
			logging.String(logging.FieldEventType, "validate_rejected"),
			logging.String("path", filepath.Base(path)),
			logging.String("reason", string(reason)))
	}
	return valid, rejected
}
