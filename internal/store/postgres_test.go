package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// newMockPostgres wires a pgxmock pool into a PostgresStore so query and
// transaction behaviour can be exercised without a live database.
func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresGetApplication(t *testing.T) {
	st, mock := newMockPostgres(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT reference, id, app_type, metadata, created_at, updated_at FROM applications").
		WithArgs("APP/2026/0042").
		WillReturnRows(pgxmock.NewRows([]string{"reference", "id", "app_type", "metadata", "created_at", "updated_at"}).
			AddRow("APP/2026/0042", "app-id-1", "householder", []byte(`{"resolved_fields":{"parish":"Holbeck"}}`), now, now))

	app, err := st.GetApplication(context.Background(), "APP/2026/0042")
	require.NoError(t, err)
	assert.Equal(t, "APP/2026/0042", app.Reference)
	assert.Equal(t, model.AppTypeHouseholder, app.Type)
	resolved, ok := app.Metadata["resolved_fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Holbeck", resolved["parish"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetApplicationMissing(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT reference, id, app_type, metadata, created_at, updated_at FROM applications").
		WithArgs("APP/2026/9999").
		WillReturnRows(pgxmock.NewRows([]string{"reference", "id", "app_type", "metadata", "created_at", "updated_at"}))

	_, err := st.GetApplication(context.Background(), "APP/2026/9999")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateSubmissionNilParent(t *testing.T) {
	st, mock := newMockPostgres(t)

	// An original submission has no parent; the column must be NULL rather
	// than an empty string so the version tree stays queryable.
	mock.ExpectExec("INSERT INTO submissions").
		WithArgs("sub-0", "APP/2026/0042", 0, nil, "pending", []byte("null"), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.CreateSubmission(context.Background(), &model.Submission{
		ID:             "sub-0",
		ApplicationRef: "APP/2026/0042",
		Version:        0,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateSubmissionStatus(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("completed", pgxmock.AnyArg(), "sub-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.UpdateSubmissionStatus(context.Background(), "sub-1", model.SubmissionCompleted)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateSubmissionStatusNotFound(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE submissions SET status").
		WithArgs("failed", pgxmock.AnyArg(), "sub-missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateSubmissionStatus(context.Background(), "sub-missing", model.SubmissionFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: submission sub-missing not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMergeSubmissionMetadata(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT metadata FROM submissions WHERE id = .* FOR UPDATE").
		WithArgs("sub-1").
		WillReturnRows(pgxmock.NewRows([]string{"metadata"}).
			AddRow([]byte(`{"llm_call_count":1,"resolved_fields":{"site_address":"1 High St"}}`)))
	// The resolved_fields map must deep-merge, keeping site_address while
	// adding fee_amount.
	mock.ExpectExec("UPDATE submissions SET metadata").
		WithArgs(
			[]byte(`{"llm_call_count":1,"resolved_fields":{"fee_amount":"258","site_address":"1 High St"}}`),
			pgxmock.AnyArg(),
			"sub-1",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := st.MergeSubmissionMetadata(context.Background(), "sub-1", map[string]any{
		"resolved_fields": map[string]any{"fee_amount": "258"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMergeMetadataNullStored(t *testing.T) {
	st, mock := newMockPostgres(t)

	// A submission created without a metadata bag holds JSON null; the
	// first merge starts from an empty bag.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT metadata FROM submissions WHERE id = .* FOR UPDATE").
		WithArgs("sub-1").
		WillReturnRows(pgxmock.NewRows([]string{"metadata"}).AddRow([]byte(`null`)))
	mock.ExpectExec("UPDATE submissions SET metadata").
		WithArgs(
			[]byte(`{"resolved_fields":{"fee_amount":"258"}}`),
			pgxmock.AnyArg(),
			"sub-1",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := st.MergeSubmissionMetadata(context.Background(), "sub-1", map[string]any{
		"resolved_fields": map[string]any{"fee_amount": "258"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIncrementLLMCallCount(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT metadata FROM submissions WHERE id = .* FOR UPDATE").
		WithArgs("sub-1").
		WillReturnRows(pgxmock.NewRows([]string{"metadata"}).
			AddRow([]byte(`{"llm_call_count":2,"resolved_fields":{"parish":"Holbeck"}}`)))
	mock.ExpectExec("UPDATE submissions SET metadata").
		WithArgs(
			[]byte(`{"llm_call_count":3,"resolved_fields":{"parish":"Holbeck"}}`),
			pgxmock.AnyArg(),
			"sub-1",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	n, err := st.IncrementLLMCallCount(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMergeMetadataRollsBackOnReadError(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT metadata FROM applications WHERE reference = .* FOR UPDATE").
		WithArgs("APP/2026/0042").
		WillReturnError(eris.New("connection reset"))
	mock.ExpectRollback()

	err := st.MergeApplicationMetadata(context.Background(), "APP/2026/0042", map[string]any{
		"resolved_fields": map[string]any{"parish": "Holbeck"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMergeMetadataEmptyUpdatesNoOp(t *testing.T) {
	st, mock := newMockPostgres(t)

	// No expectations registered: an empty update must not touch the pool.
	require.NoError(t, st.MergeSubmissionMetadata(context.Background(), "sub-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunResultMarksFailed(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE runs SET result").
		WithArgs(pgxmock.AnyArg(), "failed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.UpdateRunResult(context.Background(), "run-1", &model.RunResult{Error: "extraction missing"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresChangeSetForSubmissionNoRows(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT id, submission_id, parent_id, items, created_at FROM changesets").
		WithArgs("sub-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "submission_id", "parent_id", "items", "created_at"}))

	cs, err := st.GetChangeSetForSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Nil(t, cs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
