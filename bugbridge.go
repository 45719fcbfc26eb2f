package bugbridge

import "time"

// Run kinds.
const (
	KindInspect   = "INSPECT"
	KindCalibrate = "CALIBRATE"
	KindTrack     = "TRACK"
)

// Run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
)

// RunRecord is one invocation of an external radar operation.
// Output holds whatever the external process printed to stdout;
// Error holds the verbatim failure text when Status is FAILED.
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`   // INSPECT | CALIBRATE | TRACK
	Status     string    `json:"status"` // RUNNING | SUCCEEDED | FAILED | ABORTED
	Params     any       `json:"params,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// RunEvent is a single log entry attached to a run.
type RunEvent struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // STARTED | FINISHED | FAILED | ABORTED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// ArrayReport is the result of the external array-inspection utility.
// The report text is owned by the external package; this side only
// captures and relays it.
type ArrayReport struct {
	Label       string    `json:"label"`
	Length      int       `json:"length"`
	Report      string    `json:"report"`
	GeneratedAt time.Time `json:"generated_at"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
