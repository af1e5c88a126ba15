package transcribe

import (
	"sort"

	"voicepipe/internal/model"
)

// BatchPlan parameterizes duration-balanced batching (spec.md §4.4.4).
type BatchPlan struct {
	WorkBudgetMinutes float64
	MaxFiles          int
	MinFiles          int
}

// Batch is one duration-balanced group of files.
type Batch struct {
	Files            []model.AudioSource
	TotalMinutes     float64
}

// PlanBatches sorts files longest-first and greedily packs them: add to the
// current batch until the next file would exceed the work budget or the
// hard max file count is reached, then start a new batch. The last batch
// may be under-budget (spec.md §4.4.4).
func PlanBatches(files []model.AudioSource, plan BatchPlan) []Batch {
	if len(files) == 0 {
		return nil
	}
	budget := plan.WorkBudgetMinutes
	if budget <= 0 {
		budget = 7
	}
	maxFiles := plan.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 4
	}

	sorted := make([]model.AudioSource, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EstimatedMinutes > sorted[j].EstimatedMinutes })

	var batches []Batch
	var current Batch
	for _, f := range sorted {
		wouldExceedBudget := len(current.Files) > 0 && current.TotalMinutes+f.EstimatedMinutes > budget
		wouldExceedCount := len(current.Files) >= maxFiles
		if wouldExceedBudget || wouldExceedCount {
			batches = append(batches, current)
			current = Batch{}
		}
		current.Files = append(current.Files, f)
		current.TotalMinutes += f.EstimatedMinutes
	}
	if len(current.Files) > 0 {
		batches = append(batches, current)
	}
	return batches
}
