package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0f/fsclient/internal/validation"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func int64Ptr(v int64) *int64 { return &v }

func testRecord(t *testing.T, success bool, expectationID int64) *ValidationRecord {
	t.Helper()
	v, err := validation.New(validation.Params{
		ID:                int64Ptr(99),
		Success:           success,
		Result:            `{"observed_value": 4}`,
		ExceptionInfo:     map[string]any{},
		ExpectationConfig: map[string]any{"expectation_type": "expect_column_max_to_be_between"},
		Meta:              map[string]any{"run": "nightly"},
		ObservedValue:     4.0,
		ExpectationID:     int64Ptr(expectationID),
	})
	require.NoError(t, err)
	r, err := RecordFromResult(v, "report.json")
	require.NoError(t, err)
	return r
}

func TestValidationResultCRUD(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	r := testRecord(t, true, 7)
	require.NoError(t, store.InsertValidationResult(ctx, r))
	require.NotZero(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := store.GetValidationResult(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, int64(99), *got.RemoteID)
	assert.Equal(t, int64(7), *got.ExpectationID)
	assert.Nil(t, got.ValidationReportID)
	assert.JSONEq(t, `{"observed_value": 4}`, got.Result)
	assert.Equal(t, "report.json", got.Source)

	v, err := got.ToResult()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"run": "nightly"}, v.Meta())
	assert.Equal(t, 4.0, v.ObservedValue())
	assert.Equal(t, int64(99), *v.ID())

	require.NoError(t, store.DeleteValidationResult(ctx, r.ID))
	_, err = store.GetValidationResult(ctx, r.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, store.DeleteValidationResult(ctx, r.ID), sql.ErrNoRows)
}

func TestListValidationResults(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.InsertValidationResult(ctx, testRecord(t, i%2 == 0, int64(1+i%2))))
	}

	all, err := store.ListValidationResults(ctx, ValidationFilter{}, Pagination{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, 3, all.TotalPages)
	assert.Len(t, all.Data.([]*ValidationRecord), 2)

	failed, err := store.ListValidationResults(ctx, ValidationFilter{FailedOnly: true}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), failed.Total)
	assert.Equal(t, 20, failed.PerPage)
	for _, r := range failed.Data.([]*ValidationRecord) {
		assert.False(t, r.Success)
	}

	byExp, err := store.ListValidationResults(ctx, ValidationFilter{ExpectationID: 1}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byExp.Total)

	none, err := store.ListValidationResults(ctx, ValidationFilter{Source: "other.json"}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), none.Total)
	assert.Empty(t, none.Data.([]*ValidationRecord))
}

func TestPurgeOldData(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertValidationResult(ctx, testRecord(t, true, 1)))
	require.NoError(t, store.InsertValidationResult(ctx, testRecord(t, false, 1)))

	n, err := store.PurgeOldData(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.PurgeOldData(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRetentionWorkerRunOnce(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertValidationResult(ctx, testRecord(t, true, 1)))

	w := NewRetentionWorker(store, 30, time.Hour, nil)
	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	w.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRetentionWorkerStopsOnCancel(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewRetentionWorker(store, 1, time.Millisecond, nil).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retention worker did not stop")
	}
}

func TestMigrationFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
CREATE TABLE schema_version (version INTEGER NOT NULL);
INSERT INTO schema_version (version) VALUES (1);
CREATE TABLE validation_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	remote_id INTEGER,
	success INTEGER NOT NULL DEFAULT 0,
	result TEXT NOT NULL DEFAULT '{}',
	meta TEXT NOT NULL DEFAULT '{}',
	exception_info TEXT NOT NULL DEFAULT '{}',
	expectation_config TEXT NOT NULL DEFAULT '{}',
	observed_value TEXT NOT NULL DEFAULT '',
	expectation_id INTEGER,
	validation_report_id INTEGER,
	created_at TEXT NOT NULL
);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewSQLiteStore(path, 1)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.readDB.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)
	require.NoError(t, store.InsertValidationResult(context.Background(), testRecord(t, true, 1)))
}

func TestMigrationRejectsAncientSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ancient.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version (version) VALUES (0);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewSQLiteStore(path, 1)
	assert.ErrorContains(t, err, "too old")
}

func TestNewSQLiteStoreBadPath(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "x.db"), 1)
	assert.Error(t, err)
}

func TestCloseReportsErrors(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "close.db"), 1)
	require.NoError(t, err)
	require.NoError(t, store.InsertValidationResult(context.Background(), testRecord(t, true, 1)))

	require.NoError(t, store.Close())

	err = store.Close()
	require.Error(t, err)
	assert.ErrorContains(t, err, "wal checkpoint")
}
