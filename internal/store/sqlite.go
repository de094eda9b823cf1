package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS applications (
	reference  TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	app_type   TEXT NOT NULL,
	metadata   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS submissions (
	id              TEXT PRIMARY KEY,
	application_ref TEXT NOT NULL REFERENCES applications(reference),
	version         INTEGER NOT NULL,
	parent_id       TEXT,
	status          TEXT NOT NULL DEFAULT 'pending',
	metadata        TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id),
	filename      TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	pages         INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS extracted_fields (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	name        TEXT NOT NULL,
	value       TEXT,
	confidence  REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS geometry_features (
	id            TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id),
	name          TEXT NOT NULL,
	wkb           BLOB,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS spatial_metrics (
	submission_id TEXT NOT NULL REFERENCES submissions(id),
	name          TEXT NOT NULL,
	value         REAL NOT NULL,
	unit          TEXT,
	PRIMARY KEY (submission_id, name)
);

CREATE TABLE IF NOT EXISTS changesets (
	id            TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id),
	parent_id     TEXT NOT NULL,
	items         TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS validation_checks (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	document_id TEXT NOT NULL,
	rule_id     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT,
	payload     TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (run_id, document_id, rule_id)
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	document_id   TEXT NOT NULL,
	submission_id TEXT,
	status        TEXT NOT NULL DEFAULT 'queued',
	result        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_submissions_app ON submissions(application_ref);
CREATE INDEX IF NOT EXISTS idx_documents_submission ON documents(submission_id);
CREATE INDEX IF NOT EXISTS idx_fields_document ON extracted_fields(document_id);
CREATE INDEX IF NOT EXISTS idx_geometry_submission ON geometry_features(submission_id);
CREATE INDEX IF NOT EXISTS idx_changesets_submission ON changesets(submission_id);
CREATE INDEX IF NOT EXISTS idx_checks_run ON validation_checks(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_submission ON runs(submission_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Applications ---

func (s *SQLiteStore) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	metaJSON, err := json.Marshal(app.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal application metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (reference, id, app_type, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		app.Reference, app.ID, string(app.Type), string(metaJSON), now, now,
	)
	return eris.Wrapf(err, "sqlite: insert application %s", app.Reference)
}

func (s *SQLiteStore) GetApplication(ctx context.Context, ref string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT reference, id, app_type, metadata, created_at, updated_at FROM applications WHERE reference = ?`,
		ref,
	)

	var app model.Application
	var appType string
	var metaJSON sql.NullString
	if err := row.Scan(&app.Reference, &app.ID, &appType, &metaJSON, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: get application %s", ref)
	}
	app.Type = model.ApplicationType(appType)
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &app.Metadata); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal application metadata %s", ref)
		}
	}
	return &app, nil
}

func (s *SQLiteStore) MergeApplicationMetadata(ctx context.Context, ref string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var metaJSON sql.NullString
		row := tx.QueryRowContext(ctx, `SELECT metadata FROM applications WHERE reference = ?`, ref)
		if err := row.Scan(&metaJSON); err != nil {
			return eris.Wrapf(err, "sqlite: read application metadata %s", ref)
		}

		merged, err := mergeMetadata(metaJSON.String, updates)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE applications SET metadata = ?, updated_at = ? WHERE reference = ?`,
			merged, time.Now().UTC(), ref,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update application metadata %s", ref)
		}
		return checkRowsAffected(res, "application", ref)
	})
}

// --- Submissions ---

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
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
		return eris.Wrap(err, "sqlite: marshal submission metadata")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, application_ref, version, parent_id, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ApplicationRef, sub.Version, nullString(sub.ParentID), string(sub.Status), string(metaJSON), now, now,
	)
	return eris.Wrapf(err, "sqlite: insert submission %s", sub.ID)
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, application_ref, version, parent_id, status, metadata, created_at, updated_at
		 FROM submissions WHERE id = ?`,
		id,
	)
	return scanSubmission(row)
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, applicationRef string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_ref, version, parent_id, status, metadata, created_at, updated_at
		 FROM submissions WHERE application_ref = ? ORDER BY version ASC`,
		applicationRef,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list submissions for %s", applicationRef)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, eris.Wrap(rows.Err(), "sqlite: iterate submissions")
}

func (s *SQLiteStore) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update submission status %s", id)
	}
	return checkRowsAffected(res, "submission", id)
}

func (s *SQLiteStore) MergeSubmissionMetadata(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var metaJSON sql.NullString
		row := tx.QueryRowContext(ctx, `SELECT metadata FROM submissions WHERE id = ?`, id)
		if err := row.Scan(&metaJSON); err != nil {
			return eris.Wrapf(err, "sqlite: read submission metadata %s", id)
		}

		merged, err := mergeMetadata(metaJSON.String, updates)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE submissions SET metadata = ?, updated_at = ? WHERE id = ?`,
			merged, time.Now().UTC(), id,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update submission metadata %s", id)
		}
		return checkRowsAffected(res, "submission", id)
	})
}

// IncrementLLMCallCount bumps the counter inside the write transaction, so
// parallel workers of one submission never lose an increment to a stale
// read.
func (s *SQLiteStore) IncrementLLMCallCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var metaJSON sql.NullString
		row := tx.QueryRowContext(ctx, `SELECT metadata FROM submissions WHERE id = ?`, id)
		if err := row.Scan(&metaJSON); err != nil {
			return eris.Wrapf(err, "sqlite: read submission metadata %s", id)
		}

		count = metadataCallCount(metaJSON.String) + 1
		merged, err := mergeMetadata(metaJSON.String, map[string]any{model.MetaLLMCallCount: count})
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE submissions SET metadata = ?, updated_at = ? WHERE id = ?`,
			merged, time.Now().UTC(), id,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: update submission metadata %s", id)
		}
		return checkRowsAffected(res, "submission", id)
	})
	return count, err
}

// --- Documents and extracted fields ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, submission_id, filename, doc_type, pages, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SubmissionID, doc.Filename, doc.DocType, doc.Pages, doc.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert document %s", doc.ID)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, submissionID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, filename, doc_type, pages, created_at FROM documents WHERE submission_id = ? ORDER BY created_at`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list documents for %s", submissionID)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.SubmissionID, &d.Filename, &d.DocType, &d.Pages, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

func (s *SQLiteStore) PutExtractedFields(ctx context.Context, documentID string, fields []model.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range fields {
			f := &fields[i]
			if f.ID == "" {
				f.ID = uuid.New().String()
			}
			valueJSON, err := json.Marshal(f.Value)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal field %s", f.Name)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO extracted_fields (id, document_id, name, value, confidence) VALUES (?, ?, ?, ?, ?)`,
				f.ID, documentID, f.Name, string(valueJSON), f.Confidence,
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert field %s", f.Name)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListExtractedFields(ctx context.Context, submissionID string) ([]model.ExtractedField, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ef.id, ef.document_id, ef.name, ef.value, ef.confidence
		 FROM extracted_fields ef
		 JOIN documents d ON d.id = ef.document_id
		 WHERE d.submission_id = ?`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list fields for %s", submissionID)
	}
	defer rows.Close()

	var fields []model.ExtractedField
	for rows.Next() {
		var f model.ExtractedField
		var valueJSON sql.NullString
		if err := rows.Scan(&f.ID, &f.DocumentID, &f.Name, &valueJSON, &f.Confidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan field")
		}
		if valueJSON.Valid && valueJSON.String != "" {
			if err := json.Unmarshal([]byte(valueJSON.String), &f.Value); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal field %s", f.Name)
			}
		}
		fields = append(fields, f)
	}
	return fields, eris.Wrap(rows.Err(), "sqlite: iterate fields")
}

// --- Geometry ---

func (s *SQLiteStore) PutGeometryFeatures(ctx context.Context, features []model.GeometryFeature) error {
	if len(features) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range features {
			f := &features[i]
			if f.ID == "" {
				f.ID = uuid.New().String()
			}
			if f.CreatedAt.IsZero() {
				f.CreatedAt = time.Now().UTC()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO geometry_features (id, submission_id, name, wkb, created_at) VALUES (?, ?, ?, ?, ?)`,
				f.ID, f.SubmissionID, f.Name, f.WKB, f.CreatedAt,
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert geometry %s", f.Name)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListGeometryFeatures(ctx context.Context, submissionID string) ([]model.GeometryFeature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, name, wkb, created_at FROM geometry_features WHERE submission_id = ?`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list geometry for %s", submissionID)
	}
	defer rows.Close()

	var features []model.GeometryFeature
	for rows.Next() {
		var f model.GeometryFeature
		if err := rows.Scan(&f.ID, &f.SubmissionID, &f.Name, &f.WKB, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan geometry")
		}
		features = append(features, f)
	}
	return features, eris.Wrap(rows.Err(), "sqlite: iterate geometry")
}

func (s *SQLiteStore) PutSpatialMetrics(ctx context.Context, metrics []model.SpatialMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range metrics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO spatial_metrics (submission_id, name, value, unit) VALUES (?, ?, ?, ?)
				 ON CONFLICT (submission_id, name) DO UPDATE SET value = excluded.value, unit = excluded.unit`,
				m.SubmissionID, m.Name, m.Value, m.Unit,
			); err != nil {
				return eris.Wrapf(err, "sqlite: upsert metric %s", m.Name)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListSpatialMetrics(ctx context.Context, submissionID string) ([]model.SpatialMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT submission_id, name, value, unit FROM spatial_metrics WHERE submission_id = ?`,
		submissionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list metrics for %s", submissionID)
	}
	defer rows.Close()

	var metrics []model.SpatialMetric
	for rows.Next() {
		var m model.SpatialMetric
		var unit sql.NullString
		if err := rows.Scan(&m.SubmissionID, &m.Name, &m.Value, &unit); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		m.Unit = unit.String
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: iterate metrics")
}

// --- ChangeSets ---

func (s *SQLiteStore) CreateChangeSet(ctx context.Context, cs *model.ChangeSet) error {
	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}
	cs.CreatedAt = time.Now().UTC()

	itemsJSON, err := json.Marshal(cs.Items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal change items")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO changesets (id, submission_id, parent_id, items, created_at) VALUES (?, ?, ?, ?, ?)`,
		cs.ID, cs.SubmissionID, cs.ParentID, string(itemsJSON), cs.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert changeset %s", cs.ID)
}

func (s *SQLiteStore) GetChangeSet(ctx context.Context, id string) (*model.ChangeSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, submission_id, parent_id, items, created_at FROM changesets WHERE id = ?`,
		id,
	)
	return scanChangeSet(row)
}

func (s *SQLiteStore) GetChangeSetForSubmission(ctx context.Context, submissionID string) (*model.ChangeSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, submission_id, parent_id, items, created_at FROM changesets
		 WHERE submission_id = ? ORDER BY created_at DESC LIMIT 1`,
		submissionID,
	)
	cs, err := scanChangeSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cs, err
}

// --- Findings ---

func (s *SQLiteStore) CreateFindings(ctx context.Context, runID, documentID string, findings []model.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, f := range findings {
			payload, err := json.Marshal(f)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal finding %s", f.RuleID)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO validation_checks (id, run_id, document_id, rule_id, severity, status, message, payload, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (run_id, document_id, rule_id) DO UPDATE SET
				 severity = excluded.severity, status = excluded.status, message = excluded.message, payload = excluded.payload`,
				uuid.New().String(), runID, documentID, f.RuleID, string(f.Severity), string(f.Status), f.Message, string(payload), time.Now().UTC(),
			); err != nil {
				return eris.Wrapf(err, "sqlite: insert finding %s", f.RuleID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListFindings(ctx context.Context, runID string) ([]model.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM validation_checks WHERE run_id = ? ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list findings for %s", runID)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan finding")
		}
		var f model.Finding
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal finding")
		}
		findings = append(findings, f)
	}
	return findings, eris.Wrap(rows.Err(), "sqlite: iterate findings")
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, documentID, submissionID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, document_id, submission_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, documentID, nullString(submissionID), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	status := model.RunStatusComplete
	if result != nil && result.Error != "" {
		status = model.RunStatusFailed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, submission_id, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, document_id, submission_id, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SubmissionID != "" {
		query += ` AND submission_id = ?`
		args = append(args, filter.SubmissionID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// --- helpers ---

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*model.Submission, error) {
	var sub model.Submission
	var parentID, metaJSON sql.NullString
	var status string
	if err := row.Scan(&sub.ID, &sub.ApplicationRef, &sub.Version, &parentID, &status, &metaJSON, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan submission")
	}
	sub.ParentID = parentID.String
	sub.Status = model.SubmissionStatus(status)
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &sub.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal submission metadata")
		}
	}
	return &sub, nil
}

func scanChangeSet(row scanner) (*model.ChangeSet, error) {
	var cs model.ChangeSet
	var itemsJSON string
	if err := row.Scan(&cs.ID, &cs.SubmissionID, &cs.ParentID, &itemsJSON, &cs.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan changeset")
	}
	if err := json.Unmarshal([]byte(itemsJSON), &cs.Items); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal change items")
	}
	return &cs, nil
}

func scanRun(row scanner) (*model.Run, error) {
	var run model.Run
	var submissionID, resultJSON sql.NullString
	var status string
	if err := row.Scan(&run.ID, &run.DocumentID, &submissionID, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	run.SubmissionID = submissionID.String
	run.Status = model.RunStatus(status)
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &run.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run result")
		}
	}
	return &run, nil
}

// mergeMetadata merges updates into a stored JSON metadata bag, returning
// the serialized result. Incoming values win key collisions.
func mergeMetadata(stored string, updates map[string]any) (string, error) {
	meta := map[string]any{}
	if stored != "" {
		if err := json.Unmarshal([]byte(stored), &meta); err != nil {
			return "", eris.Wrap(err, "store: unmarshal metadata")
		}
		// Entities created with a nil metadata bag store JSON null, which
		// decodes to a nil map.
		if meta == nil {
			meta = map[string]any{}
		}
	}
	for k, v := range updates {
		// The resolved-field cache entry is itself a map; merge it rather
		// than replacing, so concurrent workers never drop earlier keys.
		if existing, ok := meta[k].(map[string]any); ok {
			if incoming, ok := v.(map[string]any); ok {
				for ik, iv := range incoming {
					existing[ik] = iv
				}
				continue
			}
		}
		meta[k] = v
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal metadata")
	}
	return string(out), nil
}

// metadataCallCount reads the call counter out of a stored metadata bag.
func metadataCallCount(stored string) int {
	if stored == "" {
		return 0
	}
	meta := map[string]any{}
	if err := json.Unmarshal([]byte(stored), &meta); err != nil {
		return 0
	}
	sub := model.Submission{Metadata: meta}
	return sub.LLMCallCount()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("store: %s %s not found", entity, id)
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}
