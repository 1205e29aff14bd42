package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ecusim/internal/logging"
)

// record is the decoded form of one JSON log line.
type record map[string]any

func decode(line string) (record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, false
	}
	return rec, true
}

func (r record) str(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func runFilter(runID string) func(string) bool {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return func(string) bool { return true }
	}
	return func(line string) bool {
		rec, ok := decode(line)
		if !ok {
			return false
		}
		return strings.HasPrefix(rec.str(logging.FieldRunID), runID)
	}
}

var headerKeys = map[string]struct{}{
	"ts":                   {},
	"level":                {},
	"msg":                  {},
	logging.FieldComponent: {},
	logging.FieldRunID:     {},
	"source":               {},
}

// Render formats a JSON log record as
// "15:04:05.000 LEVEL [component] message key=value ...". Lines that are not
// JSON records come back unchanged.
func Render(line string) string {
	rec, ok := decode(line)
	if !ok {
		return line
	}

	var b strings.Builder
	if ts, err := time.Parse(time.RFC3339Nano, rec.str("ts")); err == nil {
		b.WriteString(ts.Local().Format("2006-01-02 15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(rec.str("level"))))
	if component := rec.str(logging.FieldComponent); component != "" {
		b.WriteString(" [" + component + "]")
	}
	if runID := rec.str(logging.FieldRunID); runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		b.WriteString(" " + runID)
	}
	b.WriteString(" " + rec.str("msg"))

	keys := make([]string, 0, len(rec))
	for key := range rec {
		if _, skip := headerKeys[key]; !skip {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := rec.str(key)
		if strings.ContainsAny(value, " \t") {
			value = fmt.Sprintf("%q", value)
		}
		b.WriteString(" " + key + "=" + value)
	}
	return b.String()
}
