// Package pipeline orchestrates validation runs: rule evaluation, finding
// persistence, the escalation gate and targeted re-validation of
// revisions.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/resolution"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
	"github.com/sgshaji/PlanProof-sub000/internal/validate"
)

// Pipeline runs document validation end to end.
type Pipeline struct {
	catalogue *rules.Catalogue
	store     store.Store
	engine    *validate.Engine
	gate      *resolution.Gate
	workers   int
}

// New creates a Pipeline. A nil gate disables escalation: reports still
// carry needs_llm, but no model call is made.
func New(cat *rules.Catalogue, st store.Store, gate *resolution.Gate, workers int) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		catalogue: cat,
		store:     st,
		engine:    validate.NewEngine(),
		gate:      gate,
		workers:   workers,
	}
}

// Run validates one document against the full catalogue and records the
// outcome as a run. Finding persistence failures are logged and swallowed:
// the in-memory report is still the run's result and a storage hiccup must
// not turn a completed validation into a failed run.
func (p *Pipeline) Run(ctx context.Context, doc model.Document, extraction *model.ExtractionResult) (*model.RunResult, error) {
	return p.run(ctx, doc, extraction, p.catalogue.Rules, nil)
}

// run validates one document. A non-nil cache is the submission-wide
// working copy shared by a batch's workers; a nil cache is loaded on
// demand for single-document runs.
func (p *Pipeline) run(ctx context.Context, doc model.Document, extraction *model.ExtractionResult, ruleSet []rules.Rule, cache *resolution.Cache) (*model.RunResult, error) {
	log := zap.L().With(
		zap.String("document_id", doc.ID),
		zap.String("submission_id", doc.SubmissionID),
	)
	start := time.Now()

	vctx, err := p.buildContext(ctx, doc, extraction)
	if err != nil {
		return nil, err
	}

	run, err := p.store.CreateRun(ctx, doc.ID, doc.SubmissionID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("failed to update run status", zap.Error(statusErr))
		}
	}

	setStatus(model.RunStatusValidating)
	report, err := p.engine.Evaluate(ctx, ruleSet, vctx)
	if err != nil {
		p.failRun(ctx, run.ID, start, err)
		return nil, err
	}
	p.persistFindings(ctx, run.ID, doc.ID, report.Findings, log)

	result := &model.RunResult{Summary: report.Summary}

	if p.gate != nil && report.Summary.NeedsLLM && vctx.HasSubmission() {
		setStatus(model.RunStatusEscalating)
		if cache == nil {
			cache, err = resolution.LoadCache(ctx, p.store, vctx.ApplicationRef, vctx.SubmissionID)
			if err != nil {
				p.failRun(ctx, run.ID, start, err)
				return nil, err
			}
		}
		outcome, err := p.gate.Process(ctx, report, cache)
		if err != nil {
			p.failRun(ctx, run.ID, start, err)
			return nil, err
		}
		result.Escalated = outcome.Escalated
		result.EscalationUSD = outcome.CostUSD

		if len(outcome.Resolved) > 0 || len(outcome.FromCache) > 0 {
			augmentFields(extraction, cache.Snapshot())
			second, err := p.engine.Evaluate(ctx, ruleSet, vctx)
			if err != nil {
				p.failRun(ctx, run.ID, start, err)
				return nil, err
			}
			p.persistFindings(ctx, run.ID, doc.ID, second.Findings, log)
			// Escalation already happened; the flag survives even if the
			// second pass is clean.
			second.Summary.NeedsLLM = second.Summary.NeedsLLM || report.Summary.NeedsLLM
			result.Summary = second.Summary
		}
	}

	result.DurationMS = time.Since(start).Milliseconds()
	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		log.Warn("failed to record run result", zap.Error(err))
	}
	setStatus(model.RunStatusComplete)
	log.Info("run complete",
		zap.Int("rules", result.Summary.RuleCount),
		zap.Int("fail", result.Summary.Fail),
		zap.Int("needs_review", result.Summary.NeedsReview),
		zap.Bool("needs_llm", result.Summary.NeedsLLM),
		zap.Bool("escalated", result.Escalated),
		zap.Int64("duration_ms", result.DurationMS))
	return result, nil
}

// sharedCache builds the one resolution cache a batch's workers share, so
// concurrent escalations for the same submission see each other's results
// instead of each paying for a model call.
func (p *Pipeline) sharedCache(ctx context.Context, submissionID string) (*resolution.Cache, error) {
	if p.gate == nil || submissionID == "" {
		return nil, nil
	}
	sub, err := p.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: loading submission %s", submissionID)
	}
	return resolution.LoadCache(ctx, p.store, sub.ApplicationRef, submissionID)
}

// buildContext resolves the submission and application around a document.
// A document without a submission still validates in ad-hoc mode.
func (p *Pipeline) buildContext(ctx context.Context, doc model.Document, extraction *model.ExtractionResult) (*validate.Context, error) {
	vctx := &validate.Context{
		DocumentID:   doc.ID,
		DocumentType: doc.DocType,
		Extraction:   extraction,
	}
	if doc.SubmissionID == "" {
		return vctx, nil
	}

	sub, err := p.store.GetSubmission(ctx, doc.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: loading submission %s", doc.SubmissionID)
	}
	vctx.SubmissionID = sub.ID
	vctx.ApplicationRef = sub.ApplicationRef
	vctx.Store = p.store

	app, err := p.store.GetApplication(ctx, sub.ApplicationRef)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: loading application %s", sub.ApplicationRef)
	}
	vctx.ApplicationType = string(app.Type)
	return vctx, nil
}

func (p *Pipeline) persistFindings(ctx context.Context, runID, documentID string, findings []model.Finding, log *zap.Logger) {
	if len(findings) == 0 {
		return
	}
	if err := p.store.CreateFindings(ctx, runID, documentID, findings); err != nil {
		log.Warn("failed to persist findings",
			zap.String("run_id", runID),
			zap.Int("findings", len(findings)),
			zap.Error(err))
	}
}

func (p *Pipeline) failRun(ctx context.Context, runID string, start time.Time, cause error) {
	result := &model.RunResult{
		Error:      cause.Error(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err := p.store.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Warn("failed to record failed run result", zap.String("run_id", runID), zap.Error(err))
	}
	if err := p.store.UpdateRunStatus(ctx, runID, model.RunStatusFailed); err != nil {
		zap.L().Warn("failed to mark run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// augmentFields fills gaps in the extraction from the resolved-field
// cache. Extracted values always win over resolved ones.
func augmentFields(extraction *model.ExtractionResult, resolved map[string]any) {
	if extraction.Fields == nil {
		extraction.Fields = map[string]any{}
	}
	for name, value := range resolved {
		if !model.ValuePresent(extraction.Fields[name]) {
			extraction.Fields[name] = value
		}
	}
}
