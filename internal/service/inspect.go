package service

import (
	"context"
	"fmt"
	"time"

	"bugbridge"
	"bugbridge/internal/repository"
)

// InspectionService relays numeric sequences to the external
// array-inspection utility and records each call as a run.
type InspectionService struct {
	bridge RadarBridge
	runRecorder
}

func NewInspectionService(br RadarBridge, runRepo repository.RunRepo, eventRepo repository.EventRepo) *InspectionService {
	return &InspectionService{
		bridge:      br,
		runRecorder: runRecorder{runRepo: runRepo, eventRepo: eventRepo},
	}
}

var _ Inspection = (*InspectionService)(nil)

// Inspect passes the sequence and label through to the external
// utility. The report text is owned by the external package; failures
// propagate with its stderr intact.
func (s *InspectionService) Inspect(ctx context.Context, p InspectParams) (bugbridge.ArrayReport, error) {
	if err := p.validate(); err != nil {
		return bugbridge.ArrayReport{}, err
	}

	rec, err := s.begin(ctx, bugbridge.KindInspect, map[string]any{
		"label":  p.Label,
		"length": len(p.Values),
	})
	if err != nil {
		return bugbridge.ArrayReport{}, err
	}

	output, callErr := s.bridge.Inspect(ctx, p.Values, p.Label)
	rec = s.finish(ctx, rec, output, callErr)
	if callErr != nil {
		return bugbridge.ArrayReport{}, fmt.Errorf("inspect run %s: %w", rec.ID, callErr)
	}

	return bugbridge.ArrayReport{
		Label:       p.Label,
		Length:      len(p.Values),
		Report:      output,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
