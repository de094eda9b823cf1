package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

func TestSummarizeRollsUpPerSubmission(t *testing.T) {
	runs := []model.Run{
		{ID: "r1", SubmissionID: "sub-a",
			Result: &model.RunResult{Escalated: true, EscalationUSD: 0.004}},
		{ID: "r2", SubmissionID: "sub-a",
			Result: &model.RunResult{}},
		{ID: "r3", SubmissionID: "sub-b",
			Result: &model.RunResult{Escalated: true, EscalationUSD: 0.010}},
		// Ad-hoc run with no submission counts toward totals only.
		{ID: "r4",
			Result: &model.RunResult{Escalated: true, EscalationUSD: 0.002}},
		// Run with no recorded result yet.
		{ID: "r5", SubmissionID: "sub-a"},
	}

	s := Summarize(runs)
	assert.Equal(t, 5, s.Runs)
	assert.Equal(t, 3, s.Escalated)
	assert.InDelta(t, 0.016, s.TotalUSD, 1e-9)

	require.Len(t, s.Submissions, 2)
	// Sorted by spend, highest first.
	assert.Equal(t, "sub-b", s.Submissions[0].SubmissionID)
	assert.InDelta(t, 0.010, s.Submissions[0].TotalUSD, 1e-9)
	assert.Equal(t, "sub-a", s.Submissions[1].SubmissionID)
	assert.Equal(t, 2, s.Submissions[1].Runs)
	assert.Equal(t, 1, s.Submissions[1].Escalated)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Runs)
	assert.Empty(t, s.Submissions)
}
