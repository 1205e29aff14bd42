package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"ecusim/internal/control"
)

// TraceHeader names the columns written by TraceWriter.
var TraceHeader = []string{
	"time",
	"engine_state",
	"effective_acc",
	"bto_override",
	"bto_ramping",
	"baseline",
	"cruise_active",
	"cruise",
	"drag_active",
	"coastdown",
	"idle_active",
	"idle",
	"limp_latched",
	"limp_latched_now",
	"overlap_rows",
	"limp",
	"rev_cut_active",
	"rev_cut_activated",
	"rev_cut_released",
	"rev",
	"slew_limited",
	"engine_speed",
}

// TraceWriter encodes one diagnostic row per pipeline step.
type TraceWriter struct {
	csv    *csv.Writer
	record []string
}

func NewTraceWriter(w io.Writer) (*TraceWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(TraceHeader); err != nil {
		return nil, err
	}
	return &TraceWriter{csv: cw, record: make([]string, 0, len(TraceHeader))}, nil
}

func (w *TraceWriter) Write(out control.RowOutput, tr control.Trace) error {
	i := strconv.Itoa
	w.record = append(w.record[:0],
		strconv.FormatInt(out.Time, 10),
		i(out.EngineState),
		i(tr.EffectiveAcc),
		flag(tr.BTOOverride),
		flag(tr.BTORamping),
		i(tr.Baseline),
		flag(tr.CruiseActive),
		i(tr.Cruise),
		flag(tr.DragActive),
		i(tr.Coastdown),
		flag(tr.IdleActive),
		i(tr.Idle),
		flag(tr.LimpLatched),
		flag(tr.LimpLatchedNow),
		i(tr.OverlapRows),
		i(tr.Limp),
		flag(tr.RevCutActive),
		flag(tr.RevCutActivated),
		flag(tr.RevCutReleased),
		i(tr.Rev),
		flag(tr.SlewLimited),
		i(out.EngineSpeed),
	)
	return w.csv.Write(w.record)
}

func (w *TraceWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
