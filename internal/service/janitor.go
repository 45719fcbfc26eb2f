package service

import (
	"context"
	"time"

	"bugbridge"
	"bugbridge/internal/repository"
)

// ----------- Sweep constants -----------
const (
	// StaleRunCutoff: a run still RUNNING after this long can only be
	// an orphan from a crashed process; external runs block in-process
	// and are closed out by the invoking service on every exit path.
	StaleRunCutoff = 6 * time.Hour

	// EventRetention: run events older than this are pruned.
	EventRetention = 30 * 24 * time.Hour
)

// JanitorService sweeps the run store in the background: orphaned
// RUNNING rows get aborted, old events get pruned.
type JanitorService struct {
	runRepo   repository.RunRepo
	eventRepo repository.EventRepo

	staleCutoff time.Duration
	retention   time.Duration
}

// NewJanitorService returns a janitor with default cutoffs.
func NewJanitorService(runRepo repository.RunRepo, eventRepo repository.EventRepo) *JanitorService {
	return &JanitorService{
		runRepo:     runRepo,
		eventRepo:   eventRepo,
		staleCutoff: StaleRunCutoff,
		retention:   EventRetention,
	}
}

var _ Janitor = (*JanitorService)(nil)

// Run sweeps once immediately, then at the given interval until ctx is
// canceled. Sweep errors are swallowed; the next tick retries.
func (s *JanitorService) Run(ctx context.Context, tick time.Duration) {
	s.sweep(ctx, time.Now())

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.sweep(ctx, now)
		}
	}
}

// sweep aborts stale runs and prunes expired events.
func (s *JanitorService) sweep(ctx context.Context, now time.Time) {
	now = now.UTC()

	if aborted, err := s.runRepo.AbortStale(ctx, now.Add(-s.staleCutoff)); err == nil && aborted > 0 {
		_ = s.eventRepo.Append(ctx, bugbridge.RunEvent{
			OccurredAt:  now,
			Type:        eventAborted,
			Description: "aborted stale runs",
			Metadata:    map[string]any{"count": aborted},
		})
	}

	_, _ = s.eventRepo.Prune(ctx, now.Add(-s.retention))
}
