package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindingEscalates(t *testing.T) {
	cases := []struct {
		severity Severity
		status   FindingStatus
		want     bool
	}{
		{SeverityError, StatusFail, true},
		{SeverityError, StatusNeedsReview, true},
		{SeverityError, StatusPass, false},
		{SeverityWarning, StatusFail, false},
		{SeverityWarning, StatusNeedsReview, false},
	}
	for _, c := range cases {
		f := Finding{Severity: c.severity, Status: c.status}
		assert.Equal(t, c.want, f.Escalates(), "%s/%s", c.severity, c.status)
	}
}

func TestSummaryCountsByStatus(t *testing.T) {
	var s ValidationSummary
	s.Add(&Finding{Severity: SeverityError, Status: StatusPass})
	s.Add(&Finding{Severity: SeverityError, Status: StatusFail})
	s.Add(&Finding{Severity: SeverityWarning, Status: StatusNeedsReview})

	assert.Equal(t, 3, s.RuleCount)
	assert.Equal(t, 1, s.Pass)
	assert.Equal(t, 1, s.Fail)
	assert.Equal(t, 1, s.NeedsReview)
}

func TestSummaryNeedsLLMNeverResets(t *testing.T) {
	var s ValidationSummary
	s.Add(&Finding{Severity: SeverityError, Status: StatusNeedsReview})
	assert.True(t, s.NeedsLLM)

	// Later passing findings must not clear the flag.
	s.Add(&Finding{Severity: SeverityError, Status: StatusPass})
	s.Add(&Finding{Severity: SeverityError, Status: StatusPass})
	assert.True(t, s.NeedsLLM)
}

func TestSummaryWarningsDoNotEscalate(t *testing.T) {
	var s ValidationSummary
	s.Add(&Finding{Severity: SeverityWarning, Status: StatusFail})
	assert.False(t, s.NeedsLLM)
}

func TestAttachEvidenceCap(t *testing.T) {
	var f Finding
	for i := 0; i < MaxFindingEvidence+3; i++ {
		f.AttachEvidence(Evidence{Page: i, Snippet: "x"})
	}
	assert.Len(t, f.Evidence, MaxFindingEvidence)
}
