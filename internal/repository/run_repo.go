package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bugbridge"
)

// ErrRunNotFound is returned by Get when no run has the given id.
var ErrRunNotFound = errors.New("run not found")

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite {
	return &RunSQLite{db: db}
}

var _ RunRepo = (*RunSQLite)(nil)

const (
	insertRunSQL = `
		INSERT INTO runs (id, kind, status, params, output, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	finishRunSQL = `
		UPDATE runs SET status=?, output=?, error=?, finished_at=? WHERE id=?
	`

	selectRunSQL = `
		SELECT id, kind, status, params, output, error, started_at, finished_at
		FROM runs WHERE id=?
	`

	abortStaleSQL = `
		UPDATE runs SET status=?, error=?, finished_at=? WHERE status=? AND started_at < ?
	`
)

// marshalParams converts run params to a JSON string for storage.
func marshalParams(p any) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new run row. Zero StartedAt is set to now (UTC).
func (r *RunSQLite) Create(ctx context.Context, rec bugbridge.RunRecord) error {
	paramsJSON, err := marshalParams(rec.Params)
	if err != nil {
		return err
	}

	startedUTC := rec.StartedAt
	if startedUTC.IsZero() {
		startedUTC = time.Now().UTC()
	} else {
		startedUTC = startedUTC.UTC()
	}

	var finished any
	if !rec.FinishedAt.IsZero() {
		finished = rec.FinishedAt.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertRunSQL,
		rec.ID,
		strings.ToUpper(strings.TrimSpace(rec.Kind)),
		strings.ToUpper(strings.TrimSpace(rec.Status)),
		paramsJSON,
		rec.Output,
		rec.Error,
		startedUTC,
		finished,
	)
	return err
}

// Finish closes out a run with its terminal status and captured output.
func (r *RunSQLite) Finish(ctx context.Context, id, status, output, errText string, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, finishRunSQL,
		strings.ToUpper(strings.TrimSpace(status)),
		output,
		errText,
		finishedAt.UTC(),
		id,
	)
	return err
}

// Get fetches one run by id.
func (r *RunSQLite) Get(ctx context.Context, id string) (bugbridge.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRunSQL, id)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bugbridge.RunRecord{}, ErrRunNotFound
		}
		return bugbridge.RunRecord{}, err
	}
	return rec, nil
}

// List returns runs filtered by [from, to] on started_at (inclusive)
// and/or kind/status, most recent first.
func (r *RunSQLite) List(ctx context.Context, from, to time.Time, kind, status string) ([]bugbridge.RunRecord, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "started_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "started_at <= ?")
		args = append(args, to.UTC())
	}
	if kind = strings.ToUpper(strings.TrimSpace(kind)); kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}

	q := `SELECT id, kind, status, params, output, error, started_at, finished_at FROM runs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY started_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]bugbridge.RunRecord, 0, 32)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AbortStale marks runs still RUNNING but started before the cutoff as
// ABORTED. Such rows can only exist after a process crash mid-run.
func (r *RunSQLite) AbortStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, abortStaleSQL,
		bugbridge.StatusAborted,
		"aborted: run did not finish",
		time.Now().UTC(),
		bugbridge.StatusRunning,
		before.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (bugbridge.RunRecord, error) {
	var (
		rec        bugbridge.RunRecord
		paramsJSON sql.NullString
		output     sql.NullString
		errText    sql.NullString
		finished   sql.NullTime
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Status,
		&paramsJSON,
		&output,
		&errText,
		&rec.StartedAt,
		&finished,
	); err != nil {
		return bugbridge.RunRecord{}, err
	}

	if paramsJSON.Valid && paramsJSON.String != "" {
		var v any
		if err := json.Unmarshal([]byte(paramsJSON.String), &v); err == nil {
			rec.Params = v
		} else {
			rec.Params = paramsJSON.String // keep raw if malformed
		}
	}
	rec.Output = output.String
	rec.Error = errText.String
	rec.StartedAt = rec.StartedAt.UTC()
	if finished.Valid {
		rec.FinishedAt = finished.Time.UTC()
	}
	return rec, nil
}
