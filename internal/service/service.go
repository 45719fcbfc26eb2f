package service

import (
	"context"
	"time"

	"bugbridge"
	"bugbridge/internal/bridge"
	"bugbridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Inspection exposes the external array-inspection utility.
type Inspection interface {
	Inspect(ctx context.Context, p InspectParams) (bugbridge.ArrayReport, error)
}

// Calibration triggers one-shot external calibration runs.
type Calibration interface {
	Calibrate(ctx context.Context, p CalibrationParams) (bugbridge.RunRecord, error)
}

// Tracking triggers one-shot external tracking runs.
type Tracking interface {
	Track(ctx context.Context, p TrackingParams) (bugbridge.RunRecord, error)
}

// RunLog exposes recorded runs and their event trails.
type RunLog interface {
	List(ctx context.Context, f RunFilter) ([]bugbridge.RunRecord, error)
	Get(ctx context.Context, id string) (bugbridge.RunRecord, []bugbridge.RunEvent, error)
}

// Janitor runs the background sweep that aborts orphaned runs and
// prunes old events. Stop via context cancellation in main().
type Janitor interface {
	Run(ctx context.Context, tick time.Duration)
}

// RadarBridge is the boundary to the external radar package, pinned to
// one interpreter environment. Each call blocks until the external
// process exits and returns its captured stdout.
type RadarBridge interface {
	Inspect(ctx context.Context, values []float64, label string) (string, error)
	Calibrate(ctx context.Context, a bridge.CalibrationArgs) (string, error)
	Track(ctx context.Context, a bridge.TrackingArgs) (string, error)
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Inspection
	Calibration
	Tracking
	RunLog
	Janitor
	Authorization
}

// NewService wires the repository layer and the external bridge into
// concrete services.
func NewService(repos *repository.Repository, br RadarBridge, signingKey string) *Service {
	return &Service{
		Inspection:    NewInspectionService(br, repos.RunRepo, repos.EventRepo),
		Calibration:   NewCalibrationService(br, repos.RunRepo, repos.EventRepo),
		Tracking:      NewTrackingService(br, repos.RunRepo, repos.EventRepo),
		RunLog:        NewRunLogService(repos.RunRepo, repos.EventRepo),
		Janitor:       NewJanitorService(repos.RunRepo, repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, signingKey),
	}
}
