package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/db"
	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS applications (
	reference  TEXT PRIMARY KEY,
	id         UUID NOT NULL,
	app_type   TEXT NOT NULL,
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS submissions (
	id              UUID PRIMARY KEY,
	application_ref TEXT NOT NULL REFERENCES applications(reference),
	version         INT NOT NULL,
	parent_id       UUID,
	status          TEXT NOT NULL DEFAULT 'pending',
	metadata        JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id            UUID PRIMARY KEY,
	submission_id UUID NOT NULL REFERENCES submissions(id),
	filename      TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	pages         INT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extracted_fields (
	id          UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES documents(id),
	name        TEXT NOT NULL,
	value       JSONB,
	confidence  DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS geometry_features (
	id            UUID PRIMARY KEY,
	submission_id UUID NOT NULL REFERENCES submissions(id),
	name          TEXT NOT NULL,
	wkb           BYTEA,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS spatial_metrics (
	submission_id UUID NOT NULL REFERENCES submissions(id),
	name          TEXT NOT NULL,
	value         DOUBLE PRECISION NOT NULL,
	unit          TEXT,
	PRIMARY KEY (submission_id, name)
);

CREATE TABLE IF NOT EXISTS changesets (
	id            UUID PRIMARY KEY,
	submission_id UUID NOT NULL REFERENCES submissions(id),
	parent_id     UUID NOT NULL,
	items         JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS validation_checks (
	id          UUID PRIMARY KEY,
	run_id      UUID NOT NULL,
	document_id UUID NOT NULL,
	rule_id     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT,
	payload     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, document_id, rule_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id            UUID PRIMARY KEY,
	document_id   UUID NOT NULL,
	submission_id UUID,
	status        TEXT NOT NULL DEFAULT 'queued',
	result        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_submissions_app ON submissions(application_ref);
CREATE INDEX IF NOT EXISTS idx_documents_submission ON documents(submission_id);
CREATE INDEX IF NOT EXISTS idx_fields_document ON extracted_fields(document_id);
CREATE INDEX IF NOT EXISTS idx_checks_run ON validation_checks(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Applications ---

func (s *PostgresStore) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	metaJSON, err := json.Marshal(app.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal application metadata")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO applications (reference, id, app_type, metadata, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		app.Reference, app.ID, string(app.Type), metaJSON, now, now,
	)
	return eris.Wrapf(err, "postgres: insert application %s", app.Reference)
}

func (s *PostgresStore) GetApplication(ctx context.Context, ref string) (*model.Application, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT reference, id, app_type, metadata, created_at, updated_at FROM applications WHERE reference = $1`,
		ref,
	)

	var app model.Application
	var appType string
	var metaJSON []byte
	if err := row.Scan(&app.Reference, &app.ID, &appType, &metaJSON, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: get application %s", ref)
	}
	app.Type = model.ApplicationType(appType)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &app.Metadata); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal application metadata %s", ref)
		}
	}
	return &app, nil
}

func (s *PostgresStore) MergeApplicationMetadata(ctx context.Context, ref string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.mergeMetadataTx(ctx, "applications", "reference", ref, updates)
}

// --- Submissions ---

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Status == "" {
		sub.Status = model.SubmissionPending
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	metaJSON, err := json.Marshal(sub.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal submission metadata")
	}

	var parent any
	if sub.ParentID != "" {
		parent = sub.ParentID
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, application_ref, version, parent_id, status, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.ApplicationRef, sub.Version, parent, string(sub.Status), metaJSON, now, now,
	)
	return eris.Wrapf(err, "postgres: insert submission %s", sub.ID)
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, application_ref, version, parent_id, status, metadata, created_at, updated_at FROM submissions WHERE id = $1`,
		id,
	)
	return scanPgSubmission(row)
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, applicationRef string) ([]model.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, application_ref, version, parent_id, status, metadata, created_at, updated_at
		 FROM submissions WHERE application_ref = $1 ORDER BY version ASC`,
		applicationRef,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list submissions for %s", applicationRef)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanPgSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: iterate submissions")
}

func (s *PostgresStore) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update submission status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: submission %s not found", id)
	}
	return nil
}

func (s *PostgresStore) MergeSubmissionMetadata(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.mergeMetadataTx(ctx, "submissions", "id", id, updates)
}

// IncrementLLMCallCount bumps the counter under the submission's row lock,
// so parallel workers never lose an increment to a stale read.
func (s *PostgresStore) IncrementLLMCallCount(ctx context.Context, id string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	var metaJSON []byte
	row := tx.QueryRow(ctx, `SELECT metadata FROM submissions WHERE id = $1 FOR UPDATE`, id)
	if err := row.Scan(&metaJSON); err != nil {
		return 0, eris.Wrapf(err, "postgres: read submission metadata %s", id)
	}

	count := metadataCallCount(string(metaJSON)) + 1
	merged, err := mergeMetadata(string(metaJSON), map[string]any{model.MetaLLMCallCount: count})
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE submissions SET metadata = $1, updated_at = $2 WHERE id = $3`,
		[]byte(merged), time.Now().UTC(), id,
	); err != nil {
		return 0, eris.Wrapf(err, "postgres: update submission metadata %s", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit tx")
	}
	return count, nil
}

// mergeMetadataTx performs a read-merge-write of a JSONB metadata bag under
// a row lock, so concurrent workers merging the resolved-field cache never
// drop each other's keys.
func (s *PostgresStore) mergeMetadataTx(ctx context.Context, table, keyCol, key string, updates map[string]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	var metaJSON []byte
	row := tx.QueryRow(ctx,
		`SELECT metadata FROM `+table+` WHERE `+keyCol+` = $1 FOR UPDATE`,
		key,
	)
	if err := row.Scan(&metaJSON); err != nil {
		return eris.Wrapf(err, "postgres: read %s metadata %s", table, key)
	}

	merged, err := mergeMetadata(string(metaJSON), updates)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE `+table+` SET metadata = $1, updated_at = $2 WHERE `+keyCol+` = $3`,
		[]byte(merged), time.Now().UTC(), key,
	); err != nil {
		return eris.Wrapf(err, "postgres: update %s metadata %s", table, key)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit tx")
}

// --- Documents and extracted fields ---

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, submission_id, filename, doc_type, pages, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.SubmissionID, doc.Filename, doc.DocType, doc.Pages, doc.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert document %s", doc.ID)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, submissionID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, submission_id, filename, doc_type, pages, created_at FROM documents WHERE submission_id = $1 ORDER BY created_at`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list documents for %s", submissionID)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.SubmissionID, &d.Filename, &d.DocType, &d.Pages, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate documents")
}

func (s *PostgresStore) PutExtractedFields(ctx context.Context, documentID string, fields []model.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		valueJSON, err := json.Marshal(f.Value)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal field %s", f.Name)
		}
		rows = append(rows, []any{f.ID, documentID, f.Name, valueJSON, f.Confidence})
	}
	_, err := db.CopyFrom(ctx, s.pool, "extracted_fields", []string{"id", "document_id", "name", "value", "confidence"}, rows)
	return err
}

func (s *PostgresStore) ListExtractedFields(ctx context.Context, submissionID string) ([]model.ExtractedField, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ef.id, ef.document_id, ef.name, ef.value, ef.confidence
		 FROM extracted_fields ef
		 JOIN documents d ON d.id = ef.document_id
		 WHERE d.submission_id = $1`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list fields for %s", submissionID)
	}
	defer rows.Close()

	var fields []model.ExtractedField
	for rows.Next() {
		var f model.ExtractedField
		var valueJSON []byte
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.Name, &valueJSON, &f.Confidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan field")
		}
		if len(valueJSON) > 0 {
			if err := json.Unmarshal(valueJSON, &f.Value); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal field %s", f.Name)
			}
		}
		fields = append(fields, f)
	}
	return fields, eris.Wrap(rows.Err(), "postgres: iterate fields")
}

// --- Geometry ---

func (s *PostgresStore) PutGeometryFeatures(ctx context.Context, features []model.GeometryFeature) error {
	if len(features) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(features))
	for i := range features {
		f := &features[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now().UTC()
		}
		rows = append(rows, []any{f.ID, f.SubmissionID, f.Name, f.WKB, f.CreatedAt})
	}
	_, err := db.CopyFrom(ctx, s.pool, "geometry_features", []string{"id", "submission_id", "name", "wkb", "created_at"}, rows)
	return err
}

func (s *PostgresStore) ListGeometryFeatures(ctx context.Context, submissionID string) ([]model.GeometryFeature, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, submission_id, name, wkb, created_at FROM geometry_features WHERE submission_id = $1`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list geometry for %s", submissionID)
	}
	defer rows.Close()

	var features []model.GeometryFeature
	for rows.Next() {
		var f model.GeometryFeature
		if err := rows.Scan(&f.ID, &f.SubmissionID, &f.Name, &f.WKB, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan geometry")
		}
		features = append(features, f)
	}
	return features, eris.Wrap(rows.Err(), "postgres: iterate geometry")
}

func (s *PostgresStore) PutSpatialMetrics(ctx context.Context, metrics []model.SpatialMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []any{m.SubmissionID, m.Name, m.Value, m.Unit})
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "spatial_metrics",
		Columns:      []string{"submission_id", "name", "value", "unit"},
		ConflictKeys: []string{"submission_id", "name"},
	}, rows)
	return err
}

func (s *PostgresStore) ListSpatialMetrics(ctx context.Context, submissionID string) ([]model.SpatialMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT submission_id, name, value, COALESCE(unit, '') FROM spatial_metrics WHERE submission_id = $1`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list metrics for %s", submissionID)
	}
	defer rows.Close()

	var metrics []model.SpatialMetric
	for rows.Next() {
		var m model.SpatialMetric
		if err := rows.Scan(&m.SubmissionID, &m.Name, &m.Value, &m.Unit); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: iterate metrics")
}

// --- ChangeSets ---

func (s *PostgresStore) CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error {
	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}
	cs.CreatedAt = time.Now().UTC()

	itemsJSON, err := json.Marshal(cs.Items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal change items")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO changesets (id, submission_id, parent_id, items, created_at) VALUES ($1, $2, $3, $4, $5)`,
		cs.ID, cs.SubmissionID, cs.ParentID, itemsJSON, cs.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert changeset %s", cs.ID)
}

func (s *PostgresStore) GetChangeSet(ctx context.Context, id string) (*model.ChangeSet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, submission_id, parent_id, items, created_at FROM changesets WHERE id = $1`,
		id,
	)
	cs, err := scanPgChangeSet(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get changeset %s", id)
	}
	return cs, nil
}

func (s *PostgresStore) GetChangeSetForSubmission(ctx context.Context, submissionID string) (*model.ChangeSet, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, submission_id, parent_id, items, created_at FROM changesets
		 WHERE submission_id = $1 ORDER BY created_at DESC LIMIT 1`,
		submissionID,
	)
	cs, err := scanPgChangeSet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get changeset for submission %s", submissionID)
	}
	return cs, nil
}

// --- Findings ---

func (s *PostgresStore) CreateFindings(ctx context.Context, runID, documentID string, findings []model.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	for _, f := range findings {
		payload, err := json.Marshal(f)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal finding %s", f.RuleID)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO validation_checks (id, run_id, document_id, rule_id, severity, status, message, payload, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (run_id, document_id, rule_id) DO UPDATE SET
			 severity = EXCLUDED.severity, status = EXCLUDED.status, message = EXCLUDED.message, payload = EXCLUDED.payload`,
			uuid.New().String(), runID, documentID, f.RuleID, string(f.Severity), string(f.Status), f.Message, payload, time.Now().UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert finding %s", f.RuleID)
		}
	}
	return nil
}

func (s *PostgresStore) ListFindings(ctx context.Context, runID string) ([]model.Finding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM validation_checks WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list findings for %s", runID)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan finding")
		}
		var f model.Finding
		if err := json.Unmarshal(payload, &f); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal finding")
		}
		findings = append(findings, f)
	}
	return findings, eris.Wrap(rows.Err(), "postgres: iterate findings")
}

// --- Runs ---

func (s *PostgresStore) CreateRun(ctx context.Context, documentID, submissionID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var sub any
	if submissionID != "" {
		sub = submissionID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, document_id, submission_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, documentID, sub, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:           id,
		DocumentID:   documentID,
		SubmissionID: submissionID,
		Status:       model.RunStatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	status := model.RunStatusComplete
	if result != nil && result.Error != "" {
		status = model.RunStatusFailed
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, document_id, submission_id, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var run model.Run
	var submissionID *string
	var resultJSON []byte
	var status string
	if err := row.Scan(&run.ID, &run.DocumentID, &submissionID, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if submissionID != nil {
		run.SubmissionID = *submissionID
	}
	run.Status = model.RunStatus(status)
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &run.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run result")
		}
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, document_id, submission_id, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.SubmissionID != "" {
		query += ` AND submission_id = ` + arg(filter.SubmissionID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var submissionID *string
		var resultJSON []byte
		var status string
		if err := rows.Scan(&run.ID, &run.DocumentID, &submissionID, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if submissionID != nil {
			run.SubmissionID = *submissionID
		}
		run.Status = model.RunStatus(status)
		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &run.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal run result")
			}
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

// --- scan helpers ---

func scanPgSubmission(row pgx.Row) (*model.Submission, error) {
	var sub model.Submission
	var parentID *string
	var metaJSON []byte
	var status string
	if err := row.Scan(&sub.ID, &sub.ApplicationRef, &sub.Version, &parentID, &status, &metaJSON, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: scan submission")
	}
	if parentID != nil {
		sub.ParentID = *parentID
	}
	sub.Status = model.SubmissionStatus(status)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &sub.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal submission metadata")
		}
	}
	return &sub, nil
}

func scanPgChangeSet(row pgx.Row) (*model.ChangeSet, error) {
	var cs model.ChangeSet
	var itemsJSON []byte
	if err := row.Scan(&cs.ID, &cs.SubmissionID, &cs.ParentID, &itemsJSON, &cs.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &cs.Items); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal change items")
	}
	return &cs, nil
}
