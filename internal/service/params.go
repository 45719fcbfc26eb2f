package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// timestampLayout is the external package's data timestamp format,
// YYYYmmddHHMM (e.g. "201307150230").
const timestampLayout = "200601021504"

// Data types understood by the external package.
var validDataTypes = []string{"iris", "nexrad", "odim"}

var (
	errEmptyValues  = errors.New("values must not be empty")
	errEmptyStation = errors.New("station must not be empty")
	errNegHours     = errors.New("data_hours must be >= 0")
	errBadRange     = errors.New("range_km must be > 0")
)

// InspectParams feed the array-inspection call.
type InspectParams struct {
	Values []float64 // arbitrary-length numeric sequence
	Label  string    // free-text label
}

func (p InspectParams) validate() error {
	if len(p.Values) == 0 {
		return errEmptyValues
	}
	return nil
}

// CalibrationParams feed one calibration run.
type CalibrationParams struct {
	Timestamp string // YYYYmmddHHMM
	DataType  string // iris | nexrad | odim
	Station   string // 3-letter station code
	DataHours int
	Debug     bool
	Clear     bool
	Plot      bool
}

func (p CalibrationParams) validate() error {
	return validateCommon(p.Timestamp, p.DataType, p.Station, p.DataHours)
}

// TrackingParams feed one tracking run. DataHours 0 means "closest
// scan only" and is passed through to the external package unchanged.
type TrackingParams struct {
	Timestamp string
	DataType  string
	Station   string
	DataHours int
	RangeKm   float64
	Debug     bool
}

func (p TrackingParams) validate() error {
	if err := validateCommon(p.Timestamp, p.DataType, p.Station, p.DataHours); err != nil {
		return err
	}
	if p.RangeKm <= 0 {
		return errBadRange
	}
	return nil
}

func validateCommon(timestamp, dtype, station string, dataHours int) error {
	if _, err := time.Parse(timestampLayout, timestamp); err != nil {
		return fmt.Errorf("invalid timestamp %q: expected YYYYmmddHHMM", timestamp)
	}
	if !isValidDataType(dtype) {
		return fmt.Errorf("unsupported dtype %q: supported types are %v", dtype, validDataTypes)
	}
	if strings.TrimSpace(station) == "" {
		return errEmptyStation
	}
	if dataHours < 0 {
		return errNegHours
	}
	return nil
}

func isValidDataType(dtype string) bool {
	dtype = strings.ToLower(strings.TrimSpace(dtype))
	for _, v := range validDataTypes {
		if dtype == v {
			return true
		}
	}
	return false
}

// normalizeStation lowercases and trims a station code the same way
// the external package does before touching its data directories.
func normalizeStation(station string) string {
	return strings.ToLower(strings.TrimSpace(station))
}

// RunFilter supports run-history filtering by time range, kind and status.
type RunFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Kind   string    // "", "INSPECT", "CALIBRATE", "TRACK"
	Status string    // "", "RUNNING", "SUCCEEDED", "FAILED", "ABORTED"
}
