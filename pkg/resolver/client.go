// Package resolver wraps the Anthropic API behind the narrow interface the
// escalation gate needs: given a document's extraction and a list of
// unresolved fields, ask the model to read the excerpts and fill them in.
package resolver

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// Client defines the resolution operation used by the escalation gate.
type Client interface {
	ResolveFields(ctx context.Context, req ResolveRequest) (*ResolveResult, error)
}

// ResolveRequest carries everything the model needs to resolve fields for
// one document.
type ResolveRequest struct {
	ApplicationRef string
	DocumentType   string
	Fields         []string
	Known          map[string]any
	Excerpts       []string
}

// ResolveResult is the parsed model output. Values holds only fields the
// model actually resolved; requested fields it could not ground in the
// excerpts are absent.
type ResolveResult struct {
	Values  map[string]any
	Model   string
	Usage   TokenUsage
	CostUSD float64
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// EstimateCost computes an estimated cost in USD for the usage under the
// given model. Returns 0 for unknown models.
func (u TokenUsage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	cacheWriteCost := (float64(u.CacheCreationInputTokens) / 1e6) * pricing[0] * 1.25
	cacheReadCost := (float64(u.CacheReadInputTokens) / 1e6) * pricing[0] * 0.1
	return inCost + outCost + cacheWriteCost + cacheReadCost
}

// LogCost logs token usage and estimated cost with structured fields.
func (u TokenUsage) LogCost(model, applicationRef string) {
	zap.L().Info("resolution cost",
		zap.String("model", model),
		zap.String("application_ref", applicationRef),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

const systemPrompt = `You are a planning-application document reader. You are given
excerpts from a submitted planning document, the fields already extracted from it,
and a list of field names that automated extraction could not resolve.

Read the excerpts and resolve as many of the listed fields as you can. Respond with
a single JSON object mapping field names to values. Include a field ONLY when the
excerpts actually support a value for it; omit fields you cannot ground. Use plain
strings or numbers as values. Do not include any prose outside the JSON object.`

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// Option configures the SDK-backed client.
type Option func(*sdkClient)

func WithModel(model string) Option {
	return func(c *sdkClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// NewClient creates a resolution client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     DefaultModel,
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sdkClient) ResolveFields(ctx context.Context, req ResolveRequest) (*ResolveResult, error) {
	if len(req.Fields) == 0 {
		return &ResolveResult{Values: map[string]any{}, Model: c.model}, nil
	}

	userPrompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	cc := sdk.NewCacheControlEphemeralParam()
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt, CacheControl: cc},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "resolver: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	values, err := parseValues(text.String(), req.Fields)
	if err != nil {
		return nil, err
	}

	usage := TokenUsage{
		InputTokens:              msg.Usage.InputTokens,
		OutputTokens:             msg.Usage.OutputTokens,
		CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
	}
	return &ResolveResult{
		Values:  values,
		Model:   string(msg.Model),
		Usage:   usage,
		CostUSD: usage.EstimateCost(string(msg.Model)),
	}, nil
}

// buildPrompt renders the request as a JSON payload the model echoes back
// structured answers for.
func buildPrompt(req ResolveRequest) (string, error) {
	payload := map[string]any{
		"application_reference": req.ApplicationRef,
		"document_type":         req.DocumentType,
		"known_fields":          req.Known,
		"fields_to_resolve":     req.Fields,
		"excerpts":              req.Excerpts,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "resolver: marshal prompt")
	}
	return string(data), nil
}

// parseValues extracts the JSON object from the model output, tolerating
// markdown fences, and keeps only the requested fields with non-null
// values.
func parseValues(text string, requested []string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, eris.Wrap(err, "resolver: parse model output")
	}

	wanted := make(map[string]bool, len(requested))
	for _, f := range requested {
		wanted[f] = true
	}
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil || !wanted[k] {
			continue
		}
		values[k] = v
	}
	return values, nil
}
