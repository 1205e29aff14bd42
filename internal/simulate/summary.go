package simulate

import (
	"time"

	"ecusim/internal/calibration"
	"ecusim/internal/control"
	"ecusim/internal/history"
)

// Summary describes a finished run.
type Summary struct {
	RunID string `json:"run_id"`

	InputPath   string `json:"input_path"`
	OutputPath  string `json:"output_path"`
	TracePath   string `json:"trace_path,omitempty"`
	MetricsPath string `json:"metrics_path,omitempty"`

	CalibrationPath  string                   `json:"calibration_path"`
	CalibrationFound bool                     `json:"calibration_found"`
	Corrections      []calibration.Correction `json:"corrections,omitempty"`
	IgnoredKeys      []string                 `json:"ignored_keys,omitempty"`
	RejectedKeys     []string                 `json:"rejected_keys,omitempty"`

	Rows              int64 `json:"rows"`
	RowsOn            int64 `json:"rows_on"`
	PeakSpeed         int   `json:"peak_speed"`
	FinalSpeed        int   `json:"final_speed"`
	LimpLatched       bool  `json:"limp_latched"`
	LimpLatchRow      int64 `json:"limp_latch_row"` // -1 when never latched
	RevCutActivations int   `json:"rev_cut_activations"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func newSummary(id string, started time.Time) *Summary {
	return &Summary{RunID: id, StartedAt: started, LimpLatchRow: -1}
}

// observe folds one evaluated row into the summary. row is zero-based.
func (s *Summary) observe(row int64, out control.RowOutput, trace control.Trace) {
	s.Rows++
	s.FinalSpeed = out.EngineSpeed
	if out.EngineState == 1 {
		s.RowsOn++
	}
	if out.EngineSpeed > s.PeakSpeed {
		s.PeakSpeed = out.EngineSpeed
	}
	if trace.LimpLatchedNow && s.LimpLatchRow < 0 {
		s.LimpLatchRow = row
	}
	if trace.LimpLatched {
		s.LimpLatched = true
	}
	if trace.RevCutActivated {
		s.RevCutActivations++
	}
}

func (s *Summary) applyReport(report calibration.Report) {
	s.CalibrationPath = report.Path
	s.CalibrationFound = report.Found
	s.Corrections = report.Corrections
	for _, e := range report.Unknown {
		s.IgnoredKeys = append(s.IgnoredKeys, e.Key)
	}
	for _, e := range report.Rejected {
		s.RejectedKeys = append(s.RejectedKeys, e.Key)
	}
}

// historyRun converts the summary into a history record.
func (s *Summary) historyRun(runErr error) *history.Run {
	run := &history.Run{
		ID:                     s.RunID,
		Status:                 history.StatusCompleted,
		StartedAt:              s.StartedAt,
		FinishedAt:             s.FinishedAt,
		InputPath:              s.InputPath,
		OutputPath:             s.OutputPath,
		CalibrationPath:        s.CalibrationPath,
		CalibrationFound:       s.CalibrationFound,
		CalibrationCorrections: len(s.Corrections),
		Rows:                   s.Rows,
		RowsOn:                 s.RowsOn,
		PeakSpeed:              s.PeakSpeed,
		FinalSpeed:             s.FinalSpeed,
		LimpLatched:            s.LimpLatched,
		RevCutActivations:      s.RevCutActivations,
		TracePath:              s.TracePath,
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.ErrorMessage = runErr.Error()
	}
	return run
}
