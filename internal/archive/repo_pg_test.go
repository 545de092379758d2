package archive

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mturk-tools/internal/results"
)

var batchColumns = []string{"id", "name", "sandbox", "digest", "columns", "row_count", "skipped_count", "artifact_key", "created_at"}

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoSaveBatchInsertsRows(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := Batch{
		ID:          "b-1",
		Name:        "pilot.success.yaml",
		Digest:      "abc",
		Columns:     []string{"hitid", "Answer.q1"},
		RowCount:    2,
		ArtifactKey: "pilot.success.yaml/x.results",
		CreatedAt:   created,
	}
	rows := StoredRows([]results.Row{
		{"hitid": "H1", "assignmentid": "A1", "workerid": "W1", "assignmentstatus": "Submitted"},
		{"hitid": "H1", "assignmentid": "A2", "workerid": "W2", "assignmentstatus": "Approved"},
	})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, sandbox").
		WithArgs("pilot.success.yaml", "abc").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO result_batches").
		WithArgs("b-1", "pilot.success.yaml", false, "abc", `["hitid","Answer.q1"]`, 2, 0,
			sql.NullString{String: "pilot.success.yaml/x.results", Valid: true}, created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO result_rows").
		WithArgs("b-1", 0, "A1", "H1", "W1", "Submitted", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO result_rows").
		WithArgs("b-1", 1, "A2", "H1", "W2", "Approved", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, isNew, err := repo.SaveBatch(context.Background(), b, rows)
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if !isNew || got.ID != "b-1" {
		t.Fatalf("expected new batch, got %+v created=%v", got, isNew)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveBatchReturnsExisting(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, sandbox").
		WithArgs("pilot.success.yaml", "abc").
		WillReturnRows(sqlmock.NewRows(batchColumns).
			AddRow("b-0", "pilot.success.yaml", true, "abc", []byte(`["hitid"]`), 5, 1, nil, created))
	mock.ExpectCommit()

	got, isNew, err := repo.SaveBatch(context.Background(), Batch{ID: "b-1", Name: "pilot.success.yaml", Digest: "abc"}, nil)
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if isNew || got.ID != "b-0" || got.RowCount != 5 || !got.Sandbox {
		t.Fatalf("expected existing batch, got %+v", got)
	}
	if !reflect.DeepEqual(got.Columns, []string{"hitid"}) || got.ArtifactKey != "" {
		t.Fatalf("unexpected decoded batch %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetBatchNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM result_batches").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(batchColumns))

	if _, err := repo.GetBatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoFindBatchByDigest(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE name = \\$1 AND digest = \\$2").
		WithArgs("pilot.success.yaml", "abc").
		WillReturnRows(sqlmock.NewRows(batchColumns).
			AddRow("b-0", "pilot.success.yaml", false, "abc", []byte(`["hitid"]`), 2, 0, "pilot.success.yaml/x.results", created))
	mock.ExpectQuery("WHERE name = \\$1 AND digest = \\$2").
		WithArgs("pilot.success.yaml", "def").
		WillReturnRows(sqlmock.NewRows(batchColumns))

	got, err := repo.FindBatch(context.Background(), "pilot.success.yaml", "abc")
	if err != nil {
		t.Fatalf("FindBatch: %v", err)
	}
	if got.ID != "b-0" || got.ArtifactKey != "pilot.success.yaml/x.results" {
		t.Fatalf("unexpected batch %+v", got)
	}
	if _, err := repo.FindBatch(context.Background(), "pilot.success.yaml", "def"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListRowsDecodesFields(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM result_rows").
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows([]string{"position", "assignment_id", "hit_id", "worker_id", "status", "fields"}).
			AddRow(0, "A1", "H1", "W1", "Submitted", []byte(`{"Answer.q1":"yes","hitid":"H1"}`)))

	rows, err := repo.ListRows(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if len(rows) != 1 || rows[0].Fields["Answer.q1"] != "yes" || rows[0].WorkerID != "W1" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestPGRepoRecordEventDeduplicates(t *testing.T) {
	repo, mock := newMock(t)
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Event{MessageID: "m-1", EventType: "AssignmentSubmitted", HITID: "H1", ReceivedAt: received}

	mock.ExpectExec("INSERT INTO assignment_events").
		WithArgs("m-1", "AssignmentSubmitted", "H1", "", "", sql.NullTime{}, received).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO assignment_events").
		WithArgs("m-1", "AssignmentSubmitted", "H1", "", "", sql.NullTime{}, received).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.RecordEvent(context.Background(), e)
	if err != nil || !first {
		t.Fatalf("first RecordEvent = %v, %v", first, err)
	}
	second, err := repo.RecordEvent(context.Background(), e)
	if err != nil || second {
		t.Fatalf("second RecordEvent = %v, %v", second, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
