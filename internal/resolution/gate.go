package resolution

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/resilience"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
	"github.com/sgshaji/PlanProof-sub000/internal/validate"
	"github.com/sgshaji/PlanProof-sub000/pkg/resolver"
)

// DefaultMaxCalls bounds escalation calls per submission.
const DefaultMaxCalls = 10

// Gate decides whether a validation report warrants a model call and, when
// it does, performs exactly one. The per-submission call counter in the
// submission metadata increments once per completed call; consulting the
// cache, skipping, and failed calls do not move it.
type Gate struct {
	client   resolver.Client
	store    store.Store
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	maxCalls int
}

// GateOption configures a Gate.
type GateOption func(*Gate)

func WithLimiter(l *rate.Limiter) GateOption {
	return func(g *Gate) { g.limiter = l }
}

func WithRetry(cfg resilience.RetryConfig) GateOption {
	return func(g *Gate) { g.retry = cfg }
}

func WithMaxCalls(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.maxCalls = n
		}
	}
}

func NewGate(client resolver.Client, st store.Store, opts ...GateOption) *Gate {
	g := &Gate{
		client:   client,
		store:    st,
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
		retry:    resilience.DefaultRetryConfig(),
		maxCalls: DefaultMaxCalls,
	}
	g.retry.OnRetry = resilience.RetryLogger("resolver", "resolve_fields")
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Outcome reports what the gate did for one document.
type Outcome struct {
	Escalated bool           `json:"escalated"`
	Skipped   string         `json:"skipped,omitempty"`
	FromCache map[string]any `json:"from_cache,omitempty"`
	Resolved  map[string]any `json:"resolved,omitempty"`
	CostUSD   float64        `json:"cost_usd,omitempty"`
	CallCount int            `json:"call_count"`
}

// ShouldEscalate applies the gate condition: the report flags escalation
// and at least one missing field is still unanswered by the cache.
func ShouldEscalate(report *validate.Report, cache *Cache) bool {
	if report == nil || !report.Summary.NeedsLLM {
		return false
	}
	return len(cache.Unresolved(report.MissingFields())) > 0
}

// Process runs the gate for one document's report. Cache hits are returned
// without a call; a call happens only when unresolved fields remain and
// the submission's call budget is not exhausted.
func (g *Gate) Process(ctx context.Context, report *validate.Report, cache *Cache) (*Outcome, error) {
	vctx := report.Context
	out := &Outcome{}

	if !report.Summary.NeedsLLM {
		return out, nil
	}
	missing := report.MissingFields()
	if len(missing) == 0 {
		return out, nil
	}

	// One model call at a time per working cache: a parallel worker of
	// the same submission waits here and then finds the field already
	// resolved instead of paying for it again.
	cache.escalation.Lock()
	defer cache.escalation.Unlock()

	out.FromCache = map[string]any{}
	for _, name := range missing {
		if v, ok := cache.Lookup(name); ok {
			out.FromCache[name] = v
		}
	}
	unresolved := cache.Unresolved(missing)
	if len(unresolved) == 0 {
		zap.L().Info("escalation satisfied from cache",
			zap.String("document_id", vctx.DocumentID),
			zap.Int("fields", len(out.FromCache)))
		return out, nil
	}

	sub, err := g.store.GetSubmission(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "resolution: loading submission %s", vctx.SubmissionID)
	}
	out.CallCount = sub.LLMCallCount()
	if out.CallCount >= g.maxCalls {
		out.Skipped = "call budget exhausted"
		zap.L().Warn("escalation skipped, call budget exhausted",
			zap.String("submission_id", vctx.SubmissionID),
			zap.Int("call_count", out.CallCount),
			zap.Int("max_calls", g.maxCalls))
		return out, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "resolution: rate limiter")
	}

	req := resolver.ResolveRequest{
		ApplicationRef: vctx.ApplicationRef,
		DocumentType:   vctx.DocumentType,
		Fields:         unresolved,
		Known:          vctx.Extraction.Fields,
		Excerpts:       excerpts(vctx.Extraction),
	}
	result, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*resolver.ResolveResult, error) {
		return g.client.ResolveFields(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "resolution: resolving fields for document %s", vctx.DocumentID)
	}

	// The call completed; count it exactly once regardless of how many
	// fields came back. The store does the increment inside its own
	// transaction so no concurrent worker can make us lose one.
	out.Escalated = true
	out.Resolved = result.Values
	out.CostUSD = result.CostUSD
	result.Usage.LogCost(result.Model, vctx.ApplicationRef)

	count, err := g.store.IncrementLLMCallCount(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "resolution: recording call count for submission %s", vctx.SubmissionID)
	}
	out.CallCount = count

	if len(result.Values) > 0 {
		cache.Put(result.Values)
		if err := cache.MergeAndStore(ctx, g.store); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// excerpts picks text blocks to ship to the model, bounded so a long
// document does not blow the prompt budget.
func excerpts(extraction *model.ExtractionResult) []string {
	const maxExcerpts = 20
	var out []string
	for _, block := range extraction.TextBlocks {
		if block.Text == "" {
			continue
		}
		out = append(out, block.Text)
		if len(out) >= maxExcerpts {
			break
		}
	}
	return out
}
