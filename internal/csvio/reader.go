package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecusim/internal/control"
)

// Input column names.
const (
	ColumnTime         = "time"
	ColumnIgnition     = "ignition_switch"
	ColumnAccelerator  = "acc_pedal_position"
	ColumnBrake        = "brake_pedal_position"
	ColumnGear         = "current_gear"
	ColumnCruiseEnable = "cruise_enable"
	ColumnCruiseTarget = "cruise_target_speed"
)

var (
	// ErrEmptyInput reports an input without a header row.
	ErrEmptyInput = errors.New("empty input")
	// ErrMissingColumn reports a header without the ignition column.
	ErrMissingColumn = errors.New("input header must contain '" + ColumnIgnition + "'")
)

type columns struct {
	time, ignition, acc, brake, gear, cruiseEnable, cruiseTarget int
}

func indexColumns(header []string) (columns, error) {
	lookup := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := lookup[name]; !dup {
			lookup[name] = i
		}
	}
	find := func(name string) int {
		if idx, ok := lookup[name]; ok {
			return idx
		}
		return -1
	}
	cols := columns{
		time:         find(ColumnTime),
		ignition:     find(ColumnIgnition),
		acc:          find(ColumnAccelerator),
		brake:        find(ColumnBrake),
		gear:         find(ColumnGear),
		cruiseEnable: find(ColumnCruiseEnable),
		cruiseTarget: find(ColumnCruiseTarget),
	}
	if cols.ignition < 0 {
		return cols, ErrMissingColumn
	}
	return cols, nil
}

// Reader decodes input rows one at a time.
type Reader struct {
	csv  *csv.Reader
	cols columns
	line int
}

// NewReader consumes the header row. It returns ErrEmptyInput when there is
// no header and ErrMissingColumn when the ignition column is absent.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}
	return &Reader{csv: cr, cols: cols, line: 1}, nil
}

// Next returns the next input row, or io.EOF after the last one. Blank
// records are skipped.
func (r *Reader) Next() (control.RowInput, error) {
	for {
		record, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return control.RowInput{}, io.EOF
			}
			return control.RowInput{}, fmt.Errorf("read csv row: %w", err)
		}
		line, _ := r.csv.FieldPos(0)
		r.line = line
		if blank(record) {
			continue
		}
		return r.decode(record), nil
	}
}

// Line returns the input line of the last row returned by Next.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) decode(record []string) control.RowInput {
	cell := func(idx int) (string, bool) {
		if idx < 0 || idx >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[idx])
		return v, v != ""
	}

	in := control.NewRowInput(0)
	if v, ok := cell(r.cols.time); ok {
		in.Time = leadingInt(v)
		in.HasTime = true
	}
	if v, ok := cell(r.cols.ignition); ok {
		in.Ignition = int(leadingInt(v))
	}
	if v, ok := cell(r.cols.acc); ok {
		in.AccDeg = int(leadingInt(v))
	}
	if v, ok := cell(r.cols.brake); ok {
		in.BrakeDeg = int(leadingInt(v))
	}
	if v, ok := cell(r.cols.gear); ok {
		in.Gear = int(leadingInt(v))
	}
	if v, ok := cell(r.cols.cruiseEnable); ok {
		in.CruiseEnabled = leadingInt(v) != 0
	}
	if v, ok := cell(r.cols.cruiseTarget); ok {
		in.CruiseTarget = int(leadingInt(v))
	}
	return in
}

// ReadAll decodes every row of r.
func ReadAll(r io.Reader) ([]control.RowInput, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	var rows []control.RowInput
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// leadingInt parses an optional sign followed by decimal digits and ignores
// anything after them. Values saturate at the int32 range.
func leadingInt(s string) int64 {
	const limit = 1<<31 - 1
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var v int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if v < limit {
			v = v*10 + int64(s[i]-'0')
		}
	}
	v = min(v, limit)
	if neg {
		return -v
	}
	return v
}
