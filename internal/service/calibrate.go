package service

import (
	"context"
	"fmt"
	"strings"

	"bugbridge"
	"bugbridge/internal/bridge"
	"bugbridge/internal/repository"
)

// CalibrationService triggers one-shot external calibration runs.
// Each call is atomic from this side: no retry, no partial recovery.
type CalibrationService struct {
	bridge RadarBridge
	runRecorder
}

func NewCalibrationService(br RadarBridge, runRepo repository.RunRepo, eventRepo repository.EventRepo) *CalibrationService {
	return &CalibrationService{
		bridge:      br,
		runRecorder: runRecorder{runRepo: runRepo, eventRepo: eventRepo},
	}
}

var _ Calibration = (*CalibrationService)(nil)

// Calibrate validates the request, records a run, and blocks on the
// external calibration entry point until it exits.
func (s *CalibrationService) Calibrate(ctx context.Context, p CalibrationParams) (bugbridge.RunRecord, error) {
	if err := p.validate(); err != nil {
		return bugbridge.RunRecord{}, err
	}

	args := bridge.CalibrationArgs{
		Timestamp: p.Timestamp,
		DataType:  strings.ToLower(strings.TrimSpace(p.DataType)),
		Station:   normalizeStation(p.Station),
		DataHours: p.DataHours,
		Debug:     p.Debug,
		Clear:     p.Clear,
		Plot:      p.Plot,
	}

	rec, err := s.begin(ctx, bugbridge.KindCalibrate, args)
	if err != nil {
		return bugbridge.RunRecord{}, err
	}

	output, callErr := s.bridge.Calibrate(ctx, args)
	rec = s.finish(ctx, rec, output, callErr)
	if callErr != nil {
		return rec, fmt.Errorf("calibration run %s: %w", rec.ID, callErr)
	}
	return rec, nil
}
