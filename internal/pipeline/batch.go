package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// DocumentInput pairs a document with its extraction for batch processing.
type DocumentInput struct {
	Document   model.Document
	Extraction *model.ExtractionResult
}

// BatchFailure records one document that could not be validated.
type BatchFailure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// BatchResult aggregates per-document outcomes for one submission.
type BatchResult struct {
	SubmissionID string                      `json:"submission_id"`
	Results      map[string]*model.RunResult `json:"results"`
	Failures     []BatchFailure              `json:"failures,omitempty"`
}

// Escalated counts documents whose run made a model call.
func (b *BatchResult) Escalated() int {
	n := 0
	for _, r := range b.Results {
		if r.Escalated {
			n++
		}
	}
	return n
}

// ProcessBatch validates a submission's documents under a bounded worker
// pool. One document failing does not stop the rest; the submission is
// marked failed only when every document failed.
func (p *Pipeline) ProcessBatch(ctx context.Context, submissionID string, inputs []DocumentInput) (*BatchResult, error) {
	log := zap.L().With(zap.String("submission_id", submissionID))
	log.Info("batch starting", zap.Int("documents", len(inputs)), zap.Int("workers", p.workers))

	p.setSubmissionStatus(ctx, submissionID, model.SubmissionProcessing, log)

	cache, err := p.sharedCache(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		SubmissionID: submissionID,
		Results:      map[string]*model.RunResult{},
	}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, input := range inputs {
		g.Go(func() error {
			runResult, err := p.run(gCtx, input.Document, input.Extraction, p.catalogue.Rules, cache)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, BatchFailure{
					DocumentID: input.Document.ID,
					Error:      err.Error(),
				})
				log.Error("document validation failed",
					zap.String("document_id", input.Document.ID),
					zap.Error(err))
				return nil
			}
			result.Results[input.Document.ID] = runResult
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	status := model.SubmissionCompleted
	if len(inputs) > 0 && len(result.Results) == 0 {
		status = model.SubmissionFailed
	}
	p.setSubmissionStatus(ctx, submissionID, status, log)

	log.Info("batch complete",
		zap.Int("succeeded", len(result.Results)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("escalated", result.Escalated()))
	return result, nil
}

func (p *Pipeline) setSubmissionStatus(ctx context.Context, submissionID string, status model.SubmissionStatus, log *zap.Logger) {
	if err := p.store.UpdateSubmissionStatus(ctx, submissionID, status); err != nil {
		log.Warn("failed to update submission status",
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
