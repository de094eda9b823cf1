package resolver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValuesPlainJSON(t *testing.T) {
	values, err := parseValues(`{"fee_amount": 258, "site_address": "1 High St"}`,
		[]string{"fee_amount", "site_address"})
	require.NoError(t, err)
	assert.Equal(t, 258.0, values["fee_amount"])
	assert.Equal(t, "1 High St", values["site_address"])
}

func TestParseValuesMarkdownFence(t *testing.T) {
	out := "Here are the resolved fields:\n```json\n{\"fee_amount\": 258}\n```\n"
	values, err := parseValues(out, []string{"fee_amount"})
	require.NoError(t, err)
	assert.Equal(t, 258.0, values["fee_amount"])
}

func TestParseValuesDropsUnrequestedAndNull(t *testing.T) {
	values, err := parseValues(`{"fee_amount": 258, "site_address": null, "hallucinated": "x"}`,
		[]string{"fee_amount", "site_address"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fee_amount": 258.0}, values)
}

func TestParseValuesRejectsNonJSON(t *testing.T) {
	_, err := parseValues("I could not resolve any fields.", []string{"fee_amount"})
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := buildPrompt(ResolveRequest{
		ApplicationRef: "APP/2026/0001",
		DocumentType:   "application_form",
		Fields:         []string{"fee_amount"},
		Known:          map[string]any{"site_address": "1 High St"},
		Excerpts:       []string{"The application fee of £258 was paid online."},
	})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(prompt), &payload))
	assert.Equal(t, "APP/2026/0001", payload["application_reference"])
	assert.Equal(t, "application_form", payload["document_type"])
	assert.Equal(t, []any{"fee_amount"}, payload["fields_to_resolve"])
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.Zero(t, usage.EstimateCost("unknown-model"))

	cached := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	// Cache writes bill at 1.25x input, reads at 0.1x.
	assert.InDelta(t, 0.80*1.25+0.80*0.1, cached.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}
