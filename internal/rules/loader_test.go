package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

const catalogueYAML = `version: "2026.1"
rules:
  - rule_id: core-fields
    title: Core application fields
    required_fields: [site_address, applicant_name]
    severity: error
  - rule_id: fee-paid
    rule_category: fee
    severity: error
    config:
      fee:
        fee_field: fee_amount
        by_application_type:
          householder: {min: 200, max: 300}
        exempt_types: [listed_building]
  - rule_id: height-envelope
    rule_category: spatial
    severity: error
    config:
      spatial:
        max_height_m: 8
  - rule_id: optional-contact
    required_fields: [agent_email, applicant_email]
    required_fields_any: true
    severity: warning
    applies_to: [application_form]
`

func writeCatalogue(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	cat, err := Load(writeCatalogue(t, catalogueYAML))
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())

	fee := cat.ByID("fee-paid")
	require.NotNil(t, fee)
	require.NotNil(t, fee.Config.Fee)
	rng, ok := fee.Config.Fee.RangeFor("householder")
	require.True(t, ok)
	assert.Equal(t, 200.0, rng.Min)
	assert.Equal(t, 300.0, rng.Max)

	height := cat.ByID("height-envelope")
	require.NotNil(t, height)
	require.NotNil(t, height.Config.Spatial)
	require.NotNil(t, height.Config.Spatial.MaxHeightM)
	assert.Equal(t, 8.0, *height.Config.Spatial.MaxHeightM)

	contact := cat.ByID("optional-contact")
	require.NotNil(t, contact)
	assert.True(t, contact.RequiredFieldsAny)
	assert.Equal(t, model.SeverityWarning, contact.Severity)
	assert.Equal(t, []string{"application_form"}, contact.AppliesTo)
}

func TestLoadEmptyCatalogueFails(t *testing.T) {
	_, err := Load(writeCatalogue(t, `version: "1"
rules: []
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("rules.toml")
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeCatalogue(t, "rules: [not, {a: valid"))
	assert.Error(t, err)
}
