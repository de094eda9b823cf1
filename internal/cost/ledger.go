// Package cost aggregates escalation spend across validation runs.
package cost

import (
	"sort"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// SubmissionSpend is the escalation spend attributed to one submission.
type SubmissionSpend struct {
	SubmissionID string  `json:"submission_id"`
	Runs         int     `json:"runs"`
	Escalated    int     `json:"escalated"`
	TotalUSD     float64 `json:"total_usd"`
}

// Summary is the escalation spend rollup for a set of runs.
type Summary struct {
	Submissions []SubmissionSpend `json:"submissions"`
	Runs        int               `json:"runs"`
	Escalated   int               `json:"escalated"`
	TotalUSD    float64           `json:"total_usd"`
}

// Summarize rolls up escalation costs per submission. Runs without a
// result or without a submission are counted in the totals but not
// attributed.
func Summarize(runs []model.Run) *Summary {
	perSub := map[string]*SubmissionSpend{}
	summary := &Summary{}

	for _, run := range runs {
		summary.Runs++
		if run.Result == nil {
			continue
		}
		if run.Result.Escalated {
			summary.Escalated++
		}
		summary.TotalUSD += run.Result.EscalationUSD

		if run.SubmissionID == "" {
			continue
		}
		spend, ok := perSub[run.SubmissionID]
		if !ok {
			spend = &SubmissionSpend{SubmissionID: run.SubmissionID}
			perSub[run.SubmissionID] = spend
		}
		spend.Runs++
		if run.Result.Escalated {
			spend.Escalated++
		}
		spend.TotalUSD += run.Result.EscalationUSD
	}

	for _, spend := range perSub {
		summary.Submissions = append(summary.Submissions, *spend)
	}
	sort.Slice(summary.Submissions, func(i, j int) bool {
		return summary.Submissions[i].TotalUSD > summary.Submissions[j].TotalUSD
	})
	return summary
}
