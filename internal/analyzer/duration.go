package analyzer

import (
	"context"
	"fmt"
	"time"

	"voicepipe/internal/llmclient"
	"voicepipe/internal/model"
)

// DurationEstimate is the duration estimator's structured result
// (spec.md §4.7).
type DurationEstimate struct {
	Category         model.DurationCategory `json:"duration_category"`
	EstimatedMinutes int                    `json:"estimated_minutes"`
	DueDate          time.Time              `json:"-"`
	DueDateRaw       string                 `json:"due_date"`
	Reasoning        string                 `json:"reasoning"`
}

// SafeDurationDefault is returned whenever the LLM call fails or returns
// an unparsable result (spec.md §4.7).
func SafeDurationDefault(now time.Time) DurationEstimate {
	due := endOfWeek(now)
	return DurationEstimate{
		Category:         model.DurationMedium,
		EstimatedMinutes: 20,
		DueDate:          due,
		DueDateRaw:       due.Format("2006-01-02"),
		Reasoning:        "default: LLM estimate unavailable",
	}
}

// EstimateDuration issues one LLM call per task, prompted with today's
// date and the QUICK/MEDIUM/LONG rubric, falling back to
// SafeDurationDefault on any failure (spec.md §4.7).
func EstimateDuration(ctx context.Context, llm *llmclient.Client, now time.Time, taskText string) DurationEstimate {
	fallback := SafeDurationDefault(now)
	if llm == nil || !llm.Available() {
		return fallback
	}

	system := fmt.Sprintf(`You estimate how long a personal task will take and when it is due.
Today is %s. End of this week (next Friday) is %s. End of this month is %s.
Rules: QUICK tasks take <= 2 minutes and are due today. MEDIUM tasks take 15-30 minutes and are due by end of week.
LONG tasks take hours or days and are due by end of month.
Respond with JSON: {"duration_category": "QUICK|MEDIUM|LONG", "estimated_minutes": <int>, "due_date": "YYYY-MM-DD", "reasoning": "<one sentence>"}`,
		now.Format("2006-01-02"), endOfWeek(now).Format("2006-01-02"), endOfMonth(now).Format("2006-01-02"))

	var result DurationEstimate
	if err := llm.CompleteJSON(ctx, system, taskText, &result); err != nil {
		return fallback
	}
	if !validCategory(result.Category) || result.EstimatedMinutes <= 0 {
		return fallback
	}
	if due, err := time.Parse("2006-01-02", result.DueDateRaw); err == nil {
		result.DueDate = due
	} else {
		result.DueDate = fallback.DueDate
	}
	return result
}

func validCategory(c model.DurationCategory) bool {
	switch c {
	case model.DurationQuick, model.DurationMedium, model.DurationLong:
		return true
	default:
		return false
	}
}

func endOfWeek(now time.Time) time.Time {
	daysUntilFriday := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if daysUntilFriday == 0 {
		daysUntilFriday = 7
	}
	return now.AddDate(0, 0, daysUntilFriday)
}

func endOfMonth(now time.Time) time.Time {
	firstOfNextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return firstOfNextMonth.AddDate(0, 0, -1)
}
