package service

import (
	"context"
	"time"

	"bugbridge"
	"bugbridge/internal/repository"

	"github.com/google/uuid"
)

// Run event types.
const (
	eventStarted  = "STARTED"
	eventFinished = "FINISHED"
	eventFailed   = "FAILED"
	eventAborted  = "ABORTED"
)

// runRecorder is shared by the three invocation services. It persists
// a run row before the external call and closes it out after; event
// appends are best-effort so a logging hiccup never masks the run
// outcome.
type runRecorder struct {
	runRepo   repository.RunRepo
	eventRepo repository.EventRepo
}

// begin persists a RUNNING run for the given kind and params.
func (r runRecorder) begin(ctx context.Context, kind string, params any) (bugbridge.RunRecord, error) {
	rec := bugbridge.RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    bugbridge.StatusRunning,
		Params:    params,
		StartedAt: time.Now().UTC(),
	}
	if err := r.runRepo.Create(ctx, rec); err != nil {
		return bugbridge.RunRecord{}, err
	}
	_ = r.eventRepo.Append(ctx, bugbridge.RunEvent{
		RunID:       rec.ID,
		OccurredAt:  rec.StartedAt,
		Type:        eventStarted,
		Description: kind + " run started",
	})
	return rec, nil
}

// finish closes out the run with the external call's outcome and
// returns the updated record.
func (r runRecorder) finish(ctx context.Context, rec bugbridge.RunRecord, output string, callErr error) bugbridge.RunRecord {
	now := time.Now().UTC()
	rec.Output = output
	rec.FinishedAt = now

	if callErr != nil {
		rec.Status = bugbridge.StatusFailed
		rec.Error = callErr.Error()
		_ = r.runRepo.Finish(ctx, rec.ID, rec.Status, output, rec.Error, now)
		_ = r.eventRepo.Append(ctx, bugbridge.RunEvent{
			RunID:       rec.ID,
			OccurredAt:  now,
			Type:        eventFailed,
			Description: rec.Kind + " run failed",
			Metadata:    map[string]any{"error": rec.Error},
		})
		return rec
	}

	rec.Status = bugbridge.StatusSucceeded
	_ = r.runRepo.Finish(ctx, rec.ID, rec.Status, output, "", now)
	_ = r.eventRepo.Append(ctx, bugbridge.RunEvent{
		RunID:       rec.ID,
		OccurredAt:  now,
		Type:        eventFinished,
		Description: rec.Kind + " run finished",
		Metadata:    map[string]any{"duration_s": now.Sub(rec.StartedAt).Seconds()},
	})
	return rec
}
