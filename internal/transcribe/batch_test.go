package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voicepipe/internal/model"
)

func audioSources(minutes ...float64) []model.AudioSource {
	sources := make([]model.AudioSource, len(minutes))
	for i, m := range minutes {
		sources[i] = model.AudioSource{Path: "f", EstimatedMinutes: m}
	}
	return sources
}

func TestPlanBatchesPacksByWorkBudget(t *testing.T) {
	files := audioSources(5, 4, 3, 2, 1)
	batches := PlanBatches(files, BatchPlan{WorkBudgetMinutes: 7, MaxFiles: 4, MinFiles: 1})

	require := assert.New(t)
	require.NotEmpty(batches)
	for _, b := range batches {
		require.LessOrEqual(len(b.Files), 4)
	}
}

func TestPlanBatchesRespectsHardMax(t *testing.T) {
	files := audioSources(0.1, 0.1, 0.1, 0.1, 0.1, 0.1)
	batches := PlanBatches(files, BatchPlan{WorkBudgetMinutes: 100, MaxFiles: 4})
	for _, b := range batches {
		assert.LessOrEqual(t, len(b.Files), 4)
	}
}

func TestPlanBatchesSingleLongFileDoesNotBlockBatch(t *testing.T) {
	// A single long file should not be force-packed with three short ones
	// beyond the work budget (spec.md §4.4.4 rationale).
	files := audioSources(20, 1, 1, 1)
	batches := PlanBatches(files, BatchPlan{WorkBudgetMinutes: 7, MaxFiles: 4})
	require := assert.New(t)
	require.GreaterOrEqual(len(batches), 2)
	require.Len(batches[0].Files, 1) // the 20-minute file gets its own batch
}

func TestPlanBatchesWorkBudgetInvariant(t *testing.T) {
	// sum(estimated_minutes) <= work_budget + longest_file_minutes for every
	// batch (spec.md §8 invariant 9).
	files := audioSources(6.9, 6.9, 0.5, 0.5, 0.5, 3, 3, 3)
	plan := BatchPlan{WorkBudgetMinutes: 7, MaxFiles: 4}
	batches := PlanBatches(files, plan)

	var longest float64
	for _, f := range files {
		if f.EstimatedMinutes > longest {
			longest = f.EstimatedMinutes
		}
	}
	for _, b := range batches {
		assert.LessOrEqual(t, b.TotalMinutes, plan.WorkBudgetMinutes+longest)
	}
}

func TestPlanBatchesEmptyInput(t *testing.T) {
	assert.Nil(t, PlanBatches(nil, BatchPlan{}))
}
