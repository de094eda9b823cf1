package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

func extractionCtx(fields map[string]any) *Context {
	return &Context{
		DocumentID:   "doc-1",
		DocumentType: "application_form",
		Extraction:   &model.ExtractionResult{Fields: fields},
	}
}

func TestFieldRequiredAllPresent(t *testing.T) {
	r := &rules.Rule{
		ID:             "core-fields",
		Severity:       model.SeverityError,
		RequiredFields: []string{"site_address", "applicant_name"},
	}
	vctx := extractionCtx(map[string]any{
		"site_address":   "1 High St",
		"applicant_name": "J Smith",
	})

	f, err := validateFieldRequired(context.Background(), r, vctx)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusPass, f.Status)
	assert.Empty(t, f.MissingFields)
}

func TestFieldRequiredReportsExactMissingSubset(t *testing.T) {
	r := &rules.Rule{
		ID:             "core-fields",
		Severity:       model.SeverityError,
		RequiredFields: []string{"site_address", "applicant_name", "proposal_description"},
	}
	vctx := extractionCtx(map[string]any{"site_address": "1 High St"})

	f, err := validateFieldRequired(context.Background(), r, vctx)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusNeedsReview, f.Status)
	assert.Equal(t, []string{"applicant_name", "proposal_description"}, f.MissingFields)
	assert.True(t, f.Escalates())
}

func TestFieldRequiredEmptyStringCountsAsMissing(t *testing.T) {
	r := &rules.Rule{
		ID:             "core-fields",
		Severity:       model.SeverityError,
		RequiredFields: []string{"site_address"},
	}
	vctx := extractionCtx(map[string]any{"site_address": ""})

	f, err := validateFieldRequired(context.Background(), r, vctx)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusNeedsReview, f.Status)
	assert.Equal(t, []string{"site_address"}, f.MissingFields)
}

func TestFieldRequiredAnySemantics(t *testing.T) {
	r := &rules.Rule{
		ID:                "contact",
		Severity:          model.SeverityError,
		RequiredFields:    []string{"agent_email", "applicant_email"},
		RequiredFieldsAny: true,
	}

	f, err := validateFieldRequired(context.Background(), r, extractionCtx(map[string]any{
		"applicant_email": "smith@example.com",
	}))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusPass, f.Status)

	// Total miss reports the full alternative list.
	f, err = validateFieldRequired(context.Background(), r, extractionCtx(map[string]any{}))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusNeedsReview, f.Status)
	assert.Equal(t, []string{"agent_email", "applicant_email"}, f.MissingFields)
}

func TestFieldRequiredNoFieldsInapplicable(t *testing.T) {
	r := &rules.Rule{ID: "empty", Severity: model.SeverityError}
	f, err := validateFieldRequired(context.Background(), r, extractionCtx(nil))
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestWarningSeverityDoesNotEscalate(t *testing.T) {
	r := &rules.Rule{
		ID:             "optional-extra",
		Severity:       model.SeverityWarning,
		RequiredFields: []string{"agent_phone"},
	}
	f, err := validateFieldRequired(context.Background(), r, extractionCtx(map[string]any{}))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, model.StatusNeedsReview, f.Status)
	assert.False(t, f.Escalates())
}
