package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sgshaji/PlanProof-sub000/internal/delta"
	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// RevalidateResult describes what a revision's targeted re-validation did.
type RevalidateResult struct {
	SubmissionID string           `json:"submission_id"`
	ChangeSet    *model.ChangeSet `json:"change_set"`
	Significance float64          `json:"significance"`
	Significant  bool             `json:"significant"`
	RuleIDs      []string         `json:"rule_ids,omitempty"`
	Batch        *BatchResult     `json:"batch,omitempty"`
}

// Revalidate re-runs validation for a revision submission. The change set
// against the parent is computed once and persisted; the rules re-run are
// exactly the ones the delta touched. The significance score is a
// reporting signal for reviewers and never changes which rules run. A
// revision with no recorded differences re-runs nothing.
func (p *Pipeline) Revalidate(ctx context.Context, submissionID string, threshold float64) (*RevalidateResult, error) {
	log := zap.L().With(zap.String("submission_id", submissionID))

	sub, err := p.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: loading submission %s", submissionID)
	}
	if sub.IsOriginal() {
		return nil, eris.Errorf("pipeline: submission %s is the original, nothing to revalidate against", submissionID)
	}

	cs, err := p.store.GetChangeSetForSubmission(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: loading change set for %s", submissionID)
	}
	if cs == nil {
		cs, err = delta.Compute(ctx, p.store, sub.ParentID, submissionID)
		if err != nil {
			return nil, err
		}
		if err := p.store.CreateChangeSet(ctx, cs); err != nil {
			return nil, eris.Wrapf(err, "pipeline: persisting change set for %s", submissionID)
		}
	}

	result := &RevalidateResult{
		SubmissionID: submissionID,
		ChangeSet:    cs,
		Significance: delta.Significance(cs),
	}
	if len(cs.Items) == 0 {
		log.Info("revision identical to parent, skipping re-validation")
		return result, nil
	}

	result.Significant = delta.IsSignificant(cs, threshold)
	impacted := delta.ImpactedRules(cs, p.catalogue)
	ruleSet := make([]rules.Rule, 0, len(impacted))
	for _, r := range impacted {
		ruleSet = append(ruleSet, *r)
		result.RuleIDs = append(result.RuleIDs, r.ID)
	}
	log.Info("revalidating revision",
		zap.Int("changes", len(cs.Items)),
		zap.Float64("significance", result.Significance),
		zap.Bool("significant", result.Significant),
		zap.Int("rules", len(ruleSet)))

	if len(ruleSet) == 0 {
		return result, nil
	}

	docs, err := p.store.ListDocuments(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: listing documents for %s", submissionID)
	}
	extractions, err := p.storedExtractions(ctx, submissionID, docs)
	if err != nil {
		return nil, err
	}
	cache, err := p.sharedCache(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		SubmissionID: submissionID,
		Results:      map[string]*model.RunResult{},
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	var mu sync.Mutex
	for _, doc := range docs {
		extraction := extractions[doc.ID]
		if extraction == nil {
			continue
		}
		g.Go(func() error {
			runResult, err := p.run(gCtx, doc, extraction, ruleSet, cache)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failures = append(batch.Failures, BatchFailure{DocumentID: doc.ID, Error: err.Error()})
				log.Error("revalidation failed for document",
					zap.String("document_id", doc.ID),
					zap.Error(err))
				return nil
			}
			batch.Results[doc.ID] = runResult
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	result.Batch = batch
	return result, nil
}

// storedExtractions rebuilds a minimal extraction per document from the
// fields persisted during the original run. Evidence and layout are not
// re-materialized; presence and threshold checks only need the values.
func (p *Pipeline) storedExtractions(ctx context.Context, submissionID string, docs []model.Document) (map[string]*model.ExtractionResult, error) {
	fields, err := p.store.ListExtractedFields(ctx, submissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: listing fields for %s", submissionID)
	}
	out := make(map[string]*model.ExtractionResult, len(docs))
	for _, doc := range docs {
		out[doc.ID] = &model.ExtractionResult{Fields: map[string]any{}}
	}
	for _, f := range fields {
		if extraction, ok := out[f.DocumentID]; ok {
			extraction.Fields[f.Name] = f.Value
		}
	}
	return out, nil
}
