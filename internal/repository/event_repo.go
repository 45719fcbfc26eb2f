package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"bugbridge"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const sqliteTimestampLayout = "2006-01-02 15:04:05"

// Append inserts a new event. If EventID or OccurredAt are empty, they're set.
func (r *EventSQLite) Append(ctx context.Context, e bugbridge.RunEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	// marshal metadata if present
	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_events (id, run_id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.EventID,
		e.RunID,
		e.OccurredAt.Format(sqliteTimestampLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)

	return err
}

// ListByRun returns all events for one run, oldest first.
func (r *EventSQLite) ListByRun(ctx context.Context, runID string) ([]bugbridge.RunEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, occurred_at, type, message, meta
		FROM run_events WHERE run_id = ? ORDER BY occurred_at ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]bugbridge.RunEvent, 0, 16)
	for rows.Next() {
		var ev bugbridge.RunEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.RunID, &ev.OccurredAt, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes events older than the cutoff and reports how many went.
func (r *EventSQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM run_events WHERE occurred_at < ?
	`, before.UTC().Format(sqliteTimestampLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
