package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bugbridge/internal/env"
)

// configFilename is the external package's config file. Calibration and
// tracking resolve their data directories through it, so the working
// directory must contain it before either is spawned.
const configFilename = "bugtracker.json"

var (
	ErrWorkdirMissing = errors.New("working directory does not exist")
	ErrConfigMissing  = errors.New("config file not found in working directory")
)

// CalibrationArgs are the parameters of one calibration run, in the
// order the external entry point takes them.
type CalibrationArgs struct {
	Timestamp string `json:"timestamp"` // YYYYmmddHHMM
	DataType  string `json:"dtype"`     // iris | nexrad | odim
	Station   string `json:"station"`   // 3-letter station code
	DataHours int    `json:"data_hours"`
	Debug     bool   `json:"debug"`
	Clear     bool   `json:"clear"`
	Plot      bool   `json:"plot"`
}

// TrackingArgs are the parameters of one tracking run.
type TrackingArgs struct {
	Timestamp string  `json:"timestamp"`
	DataType  string  `json:"dtype"`
	Station   string  `json:"station"`
	DataHours int     `json:"data_hours"` // 0 means closest scan only
	RangeKm   float64 `json:"range"`      // maximum range (km)
	Debug     bool    `json:"debug"`
}

// Invocation snippets. Each one is a fixed binding to a published entry
// point of the external packages; arguments travel as JSON via argv so
// no shell quoting is involved.
const (
	inspectSnippet = `import json, sys
import numpy as np
from bugtracker.core.utils import arr_info
arr_info(np.array(json.loads(sys.argv[1])), sys.argv[2])
`

	calibrateSnippet = `import json, sys
import bugtracker
a = json.loads(sys.argv[1])
bugtracker.run_calibration(a["timestamp"], a["dtype"], a["station"], a["data_hours"], a["debug"], a["clear"], a["plot"])
`

	trackSnippet = `import json, sys
import bugtracker
a = json.loads(sys.argv[1])
bugtracker.run_tracker(a["timestamp"], a["dtype"], a["station"], a["data_hours"], a["range"], a["debug"])
`
)

// Call is one fully-built external invocation: interpreter argv plus
// the explicit working directory it must run in. Workdir empty means
// the call is path-independent (inspection).
type Call struct {
	Args    []string // argv after the interpreter path
	Workdir string
}

// InspectCall builds the invocation of the array-inspection utility.
// It has no working-directory dependency.
func InspectCall(values []float64, label string) (Call, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return Call{}, fmt.Errorf("encode values: %w", err)
	}
	return Call{Args: []string{"-c", inspectSnippet, string(encoded), label}}, nil
}

// CalibrateCall builds the calibration invocation rooted at workdir.
func CalibrateCall(workdir string, a CalibrationArgs) (Call, error) {
	encoded, err := json.Marshal(a)
	if err != nil {
		return Call{}, fmt.Errorf("encode calibration args: %w", err)
	}
	return Call{Args: []string{"-c", calibrateSnippet, string(encoded)}, Workdir: workdir}, nil
}

// TrackCall builds the tracking invocation rooted at workdir.
func TrackCall(workdir string, a TrackingArgs) (Call, error) {
	encoded, err := json.Marshal(a)
	if err != nil {
		return Call{}, fmt.Errorf("encode tracking args: %w", err)
	}
	return Call{Args: []string{"-c", trackSnippet, string(encoded)}, Workdir: workdir}, nil
}

// EnsureWorkdir verifies the path-relative precondition shared by
// calibration and tracking: the directory exists and holds the
// external package's config file.
func EnsureWorkdir(workdir string) error {
	info, err := os.Stat(workdir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrWorkdirMissing, workdir)
	}
	cfg := filepath.Join(workdir, configFilename)
	if _, err := os.Stat(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrConfigMissing, cfg)
	}
	return nil
}

// Runner executes calls against one pinned environment. It satisfies
// the service layer's bridge interface.
type Runner struct {
	environment *env.Environment
	workdir     string
}

// NewRunner returns a Runner bound to the pinned environment and the
// directory containing the external package's config file.
func NewRunner(environment *env.Environment, workdir string) *Runner {
	return &Runner{environment: environment, workdir: workdir}
}

// Workdir returns the configured working directory for path-relative runs.
func (r *Runner) Workdir() string { return r.workdir }

// Inspect invokes the external array-inspection utility and returns
// its stdout.
func (r *Runner) Inspect(ctx context.Context, values []float64, label string) (string, error) {
	call, err := InspectCall(values, label)
	if err != nil {
		return "", err
	}
	return r.run(ctx, call)
}

// Calibrate triggers one calibration run. It blocks until the external
// process exits.
func (r *Runner) Calibrate(ctx context.Context, a CalibrationArgs) (string, error) {
	if err := EnsureWorkdir(r.workdir); err != nil {
		return "", err
	}
	call, err := CalibrateCall(r.workdir, a)
	if err != nil {
		return "", err
	}
	return r.run(ctx, call)
}

// Track triggers one tracking run. Independent of calibration; the
// only shared precondition is the working directory.
func (r *Runner) Track(ctx context.Context, a TrackingArgs) (string, error) {
	if err := EnsureWorkdir(r.workdir); err != nil {
		return "", err
	}
	call, err := TrackCall(r.workdir, a)
	if err != nil {
		return "", err
	}
	return r.run(ctx, call)
}
