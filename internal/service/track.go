package service

import (
	"context"
	"fmt"
	"strings"

	"bugbridge"
	"bugbridge/internal/bridge"
	"bugbridge/internal/repository"
)

// TrackingService triggers one-shot external tracking runs.
// Independent of calibration; the only shared precondition is the
// bridge's working directory.
type TrackingService struct {
	bridge RadarBridge
	runRecorder
}

func NewTrackingService(br RadarBridge, runRepo repository.RunRepo, eventRepo repository.EventRepo) *TrackingService {
	return &TrackingService{
		bridge:      br,
		runRecorder: runRecorder{runRepo: runRepo, eventRepo: eventRepo},
	}
}

var _ Tracking = (*TrackingService)(nil)

// Track validates the request, records a run, and blocks on the
// external tracking entry point until it exits.
func (s *TrackingService) Track(ctx context.Context, p TrackingParams) (bugbridge.RunRecord, error) {
	if err := p.validate(); err != nil {
		return bugbridge.RunRecord{}, err
	}

	args := bridge.TrackingArgs{
		Timestamp: p.Timestamp,
		DataType:  strings.ToLower(strings.TrimSpace(p.DataType)),
		Station:   normalizeStation(p.Station),
		DataHours: p.DataHours,
		RangeKm:   p.RangeKm,
		Debug:     p.Debug,
	}

	rec, err := s.begin(ctx, bugbridge.KindTrack, args)
	if err != nil {
		return bugbridge.RunRecord{}, err
	}

	output, callErr := s.bridge.Track(ctx, args)
	rec = s.finish(ctx, rec, output, callErr)
	if callErr != nil {
		return rec, fmt.Errorf("tracking run %s: %w", rec.ID, callErr)
	}
	return rec, nil
}
