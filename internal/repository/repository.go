package repository

import (
	"context"
	"database/sql"
	"time"

	"bugbridge"
	"bugbridge/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*bugbridge.User, error)
}

// RunRepo persists run records: one row per external invocation.
type RunRepo interface {
	Create(ctx context.Context, r bugbridge.RunRecord) error
	Finish(ctx context.Context, id, status, output, errText string, finishedAt time.Time) error
	Get(ctx context.Context, id string) (bugbridge.RunRecord, error)
	List(ctx context.Context, from, to time.Time, kind, status string) ([]bugbridge.RunRecord, error)
	AbortStale(ctx context.Context, before time.Time) (int64, error)
}

// EventRepo is the append-only per-run event log.
type EventRepo interface {
	Append(ctx context.Context, e bugbridge.RunEvent) error
	ListByRun(ctx context.Context, runID string) ([]bugbridge.RunEvent, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	RunRepo   RunRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(database *sql.DB) *Repository {
	return &Repository{
		RunRepo:   NewRunSQLite(database),
		EventRepo: NewEventSQLite(database),
		Auth:      NewUserRepository(database),
	}
}

// InitDB opens the SQLite database and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
