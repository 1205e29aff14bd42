package calibration

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Report describes where a Config came from and what the loader did with
// each occurrence it found.
type Report struct {
	Path   string
	Format Format
	Found  bool

	Applied     []Entry // first valid occurrence of each key
	Unknown     []Entry // keys that are not calibration keys
	Rejected    []Entry // known keys with malformed or out-of-range values
	Shadowed    []Entry // later occurrences of a key that was already applied
	Corrections []Correction
}

// Source reports whether key was taken from the document or left at its
// default.
func (r Report) Source(key string) string {
	for _, e := range r.Applied {
		if e.Key == key {
			return "file"
		}
	}
	return "default"
}

// Load reads the calibration document at path. A missing file is not an
// error: defaults are returned and Report.Found is false.
func Load(path string) (Config, Report, error) {
	report := Report{Path: path, Format: FormatForPath(path)}
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			report.Corrections = cfg.Normalize()
			return cfg, report, nil
		}
		return cfg, report, fmt.Errorf("open calibration: %w", err)
	}
	defer file.Close()
	report.Found = true

	cfg, decoded, err := Decode(file, report.Format)
	if err != nil {
		return Default(), report, err
	}
	decoded.Path = path
	decoded.Found = true
	return cfg, decoded, nil
}

// Decode parses a calibration document over the defaults and normalizes the
// result.
func Decode(r io.Reader, format Format) (Config, Report, error) {
	entries, err := Parse(r, format)
	if err != nil {
		return Default(), Report{Format: format}, err
	}
	cfg := Default()
	report := Apply(&cfg, entries)
	report.Format = format
	report.Corrections = cfg.Normalize()
	return cfg, report, nil
}

// Apply assigns entries onto cfg using the first-valid-occurrence rule. It
// does not normalize.
func Apply(cfg *Config, entries []Entry) Report {
	var report Report
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		key, ok := lookupKey(entry.Key)
		if !ok {
			report.Unknown = append(report.Unknown, entry)
			continue
		}
		if _, done := seen[key.Name]; done {
			report.Shadowed = append(report.Shadowed, entry)
			continue
		}
		if !key.set(cfg, entry.Value) {
			report.Rejected = append(report.Rejected, entry)
			continue
		}
		seen[key.Name] = struct{}{}
		report.Applied = append(report.Applied, entry)
	}
	return report
}
