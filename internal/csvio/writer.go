package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"ecusim/internal/control"
)

// OutputHeader is the header row of the emitted series.
var OutputHeader = []string{"time", "engine_state", "engine_speed"}

// Writer encodes emitted rows.
type Writer struct {
	csv    *csv.Writer
	record []string
}

// NewWriter writes the header row and returns a writer for the series.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputHeader); err != nil {
		return nil, err
	}
	return &Writer{csv: cw, record: make([]string, len(OutputHeader))}, nil
}

func (w *Writer) Write(out control.RowOutput) error {
	w.record[0] = strconv.FormatInt(out.Time, 10)
	w.record[1] = strconv.Itoa(out.EngineState)
	w.record[2] = strconv.Itoa(out.EngineSpeed)
	return w.csv.Write(w.record)
}

// Flush writes buffered rows and reports any write error.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
