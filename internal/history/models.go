package history

import "time"

// Status is the final state of a recorded run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded simulation.
type Run struct {
	ID     string
	Status Status

	StartedAt  time.Time
	FinishedAt time.Time

	InputPath              string
	OutputPath             string
	CalibrationPath        string
	CalibrationFound       bool
	CalibrationCorrections int

	Rows              int64
	RowsOn            int64
	PeakSpeed         int
	FinalSpeed        int
	LimpLatched       bool
	RevCutActivations int

	TracePath    string
	ErrorMessage string
}

// Duration returns the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
