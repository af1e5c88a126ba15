package orchestrator

import (
	"context"
	"fmt"

	"voicepipe/internal/analyzer"
	"voicepipe/internal/logging"
	"voicepipe/internal/model"
	"voicepipe/internal/state"
	"voicepipe/internal/storeclient"
)

// analyzedRecord pairs one Stage 4 output with the recorder-side source it
// was produced from, carried forward into Stage 5/6.
type analyzedRecord struct {
	Record model.AnalysisRecord
	Source model.AudioSource
}

// runAnalyze implements Stage 4 (spec.md §4.5-§4.8): classify each
// transcript, split multi-task transcripts, resolve a project, format and
// title the result, then write it to the document store. The project
// catalog is refreshed once per session if stale (spec.md §4.6
// "refreshed at most once per session").
func (o *Orchestrator) runAnalyze(ctx context.Context, sess *state.Session, opts RunOptions, transcripts []stagedTranscript) []analyzedRecord {
	if opts.SkipSteps[StageAnalyze] || len(transcripts) == 0 {
		return nil
	}

	if o.catalog.NeedsRefresh() {
		fetcher := storeclient.ProjectCatalogFetcher{Client: o.storeClient, DatabaseID: o.cfg.Notion.ProjectsDatabaseID}
		if err := o.catalog.Refresh(fetcher); err != nil {
			o.logger.Warn("project catalog refresh failed, using fallback contents",
				logging.String(logging.FieldEventType, "project_refresh_failed"),
				logging.Error(err))
		}
	}

	var analyzed []analyzedRecord
	var aiFailed, notionSuccess int
	for _, st := range transcripts {
		decision := o.detector.Detect(st.Transcript.Text)
		o.logger.Debug("transcript classified", logging.Args(
			logging.DecisionAttrs("category", string(decision.Category),
				fmt.Sprintf("tier=%d confidence=%.2f", decision.Tier, decision.Confidence))...)...)

		analyzeOpts := o.analyzeOpts
		analyzeOpts.Now = o.now()
		records := analyzer.Analyze(ctx, st.Transcript.Text, decision, analyzeOpts)

		for _, rec := range records {
			rec.SourceAudioPath = st.Source.Path
			rec.SourceTranscriptPath = st.Transcript.Path
			if rec.ProjectName != "" || rec.ManualReviewFlag {
				o.logger.Debug("project resolved", logging.Args(
					logging.DecisionAttrsWithOptions("project_match", rec.ProjectName, "fuzzy catalog lookup",
						fmt.Sprintf("review_required=%t", rec.ManualReviewFlag))...)...)
			}

			pageID, err := o.writeRecord(ctx, rec)
			if err != nil {
				aiFailed++
				sess.AIProcessingFailed = append(sess.AIProcessingFailed, st.Source.Path)
				sess.FailedEntries = append(sess.FailedEntries, state.FailedEntry{Path: st.Source.Path, Stage: StageAnalyze, Reason: err.Error()})
				continue
			}
			rec.StoreEntryID = pageID
			notionSuccess++
			sess.AIProcessingSuccess = append(sess.AIProcessingSuccess, st.Source.Path)
			sess.NotionSuccess = append(sess.NotionSuccess, pageID)
			analyzed = append(analyzed, analyzedRecord{Record: rec, Source: st.Source})
		}
	}

	total := notionSuccess + aiFailed
	summary := state.StageSummary{Total: total, Successful: notionSuccess, Failed: aiFailed}
	if total > 0 {
		summary.SuccessRate = float64(notionSuccess) / float64(total)
	}
	sess.StageSummaries[StageAnalyze] = summary
	return analyzed
}

// writeRecord selects the record's target database and writes it to the
// store, returning the new page's ID (spec.md §4.8).
func (o *Orchestrator) writeRecord(ctx context.Context, rec model.AnalysisRecord) (string, error) {
	databaseID := o.cfg.Notion.NotesDatabaseID
	if rec.Category == model.CategoryTask {
		databaseID = o.cfg.Notion.TasksDatabaseID
	}
	return o.storeClient.CreateRecordPage(ctx, databaseID, rec)
}
