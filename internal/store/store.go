package store

import (
	"context"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	SubmissionID string          `json:"submission_id,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the validation engine.
type Store interface {
	// Applications
	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, ref string) (*model.Application, error)
	MergeApplicationMetadata(ctx context.Context, ref string, updates map[string]any) error

	// Submissions
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, applicationRef string) ([]model.Submission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	MergeSubmissionMetadata(ctx context.Context, id string, updates map[string]any) error
	IncrementLLMCallCount(ctx context.Context, id string) (int, error)

	// Documents and extracted fields
	CreateDocument(ctx context.Context, doc *model.Document) error
	ListDocuments(ctx context.Context, submissionID string) ([]model.Document, error)
	PutExtractedFields(ctx context.Context, documentID string, fields []model.ExtractedField) error
	ListExtractedFields(ctx context.Context, submissionID string) ([]model.ExtractedField, error)

	// Geometry
	PutGeometryFeatures(ctx context.Context, features []model.GeometryFeature) error
	ListGeometryFeatures(ctx context.Context, submissionID string) ([]model.GeometryFeature, error)
	PutSpatialMetrics(ctx context.Context, metrics []model.SpatialMetric) error
	ListSpatialMetrics(ctx context.Context, submissionID string) ([]model.SpatialMetric, error)

	// ChangeSets
	CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error
	GetChangeSet(ctx context.Context, id string) (*model.ChangeSet, error)
	GetChangeSetForSubmission(ctx context.Context, submissionID string) (*model.ChangeSet, error)

	// Findings: one row per rule per document per run
	CreateFindings(ctx context.Context, runID, documentID string, findings []model.Finding) error
	ListFindings(ctx context.Context, runID string) ([]model.Finding, error)

	// Runs
	CreateRun(ctx context.Context, documentID, submissionID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
