package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"bugbridge"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunCreate_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO runs (id, kind, status, params, output, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)).
		WithArgs("run-1", "CALIBRATE", "RUNNING",
			sqlmock.AnyArg(), "", "",
			sqlmock.AnyArg(), nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(testCtx(t), bugbridge.RunRecord{
		ID:     "run-1",
		Kind:   " calibrate ",
		Status: "running",
		Params: map[string]any{"station": "xam"},
		// StartedAt zero -> repo sets UTC now
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunFinish(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	finished := time.Date(2013, 7, 15, 2, 45, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE runs SET status=?, output=?, error=?, finished_at=? WHERE id=?
	`)).
		WithArgs("SUCCEEDED", "done\n", "", finished, "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(testCtx(t), "run-1", "succeeded", "done\n", "", finished); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunGet_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	mock.ExpectQuery("SELECT id, kind, status, params, output, error, started_at, finished_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "status", "params", "output", "error", "started_at", "finished_at"}))

	_, err = repo.Get(testCtx(t), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunGet_ParsesParamsAndTimes(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	started := time.Date(2013, 7, 15, 2, 30, 0, 0, time.UTC)
	finished := started.Add(5 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "kind", "status", "params", "output", "error", "started_at", "finished_at"}).
		AddRow("run-1", "TRACK", "SUCCEEDED", `{"station":"xam","range":100}`, "ok\n", "", started, finished)

	mock.ExpectQuery("SELECT id, kind, status, params, output, error, started_at, finished_at").
		WithArgs("run-1").
		WillReturnRows(rows)

	rec, err := repo.Get(testCtx(t), "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Kind != "TRACK" || rec.Status != "SUCCEEDED" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	params, ok := rec.Params.(map[string]any)
	if !ok || params["station"] != "xam" {
		t.Fatalf("params not decoded: %+v", rec.Params)
	}
	if !rec.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at=%v, want %v", rec.FinishedAt, finished)
	}
}

func TestRunList_Filters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	from := time.Date(2013, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2013, 7, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "kind", "status", "params", "output", "error", "started_at", "finished_at"}).
		AddRow("run-1", "TRACK", "FAILED", "", "", "boom", from.Add(time.Hour), nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, kind, status, params, output, error, started_at, finished_at FROM runs "+
			"WHERE started_at >= ? AND started_at <= ? AND kind = ? AND status = ? ORDER BY started_at DESC",
	)).
		WithArgs(from, to, "TRACK", "FAILED").
		WillReturnRows(rows)

	out, err := repo.List(testCtx(t), from, to, " track ", "failed")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].Error != "boom" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunAbortStale(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	before := time.Date(2013, 7, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE runs SET status=?, error=?, finished_at=? WHERE status=? AND started_at < ?
	`)).
		WithArgs("ABORTED", sqlmock.AnyArg(), sqlmock.AnyArg(), "RUNNING", before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.AbortStale(testCtx(t), before)
	if err != nil {
		t.Fatalf("AbortStale: %v", err)
	}
	if n != 3 {
		t.Fatalf("aborted=%d, want 3", n)
	}
}

func TestRunCreate_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("down"))

	err = repo.Create(testCtx(t), bugbridge.RunRecord{ID: "run-1", Kind: "TRACK", Status: "RUNNING"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}
