package calibration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteText renders cfg as a key/value text document that Load reads back
// unchanged.
func WriteText(w io.Writer, cfg *Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Engine-speed controller calibration")
	fmt.Fprintln(bw, "# key = value; unknown keys are ignored, the first valid occurrence wins.")
	for _, key := range keyTable {
		fmt.Fprintf(bw, "\n# %s\n%s = %s\n", key.Help, key.Name, key.Value(cfg))
	}
	return bw.Flush()
}

// Map returns cfg as a flat key/value map suitable for structured encoders.
// Numbers keep their numeric type; flags render as 0/1.
func Map(cfg *Config) map[string]any {
	out := make(map[string]any, len(keyTable))
	for _, key := range keyTable {
		text := key.Value(cfg)
		if v, err := strconv.Atoi(text); err == nil {
			out[key.Name] = v
			continue
		}
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			out[key.Name] = v
			continue
		}
		out[key.Name] = text
	}
	return out
}

// CreateSample writes the default calibration as a text document.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create calibration directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write sample calibration: %w", err)
	}
	defer file.Close()
	cfg := Default()
	if err := WriteText(file, &cfg); err != nil {
		return fmt.Errorf("write sample calibration: %w", err)
	}
	return file.Close()
}
