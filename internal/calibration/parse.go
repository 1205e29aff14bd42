package calibration

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the shape of a calibration document.
type Format string

const (
	FormatText Format = "text"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the document format from the file extension. Anything
// that is not TOML or YAML is read as key/value text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Entry is one key/value occurrence found in a calibration document. Line is
// 1-based for text documents and zero for structured formats.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// Parse extracts the key/value occurrences of a calibration document in
// document order. Text documents never fail on content; structured formats
// fail only when the document itself cannot be decoded.
func Parse(r io.Reader, format Format) ([]Entry, error) {
	switch format {
	case FormatTOML:
		return parseTOML(r)
	case FormatYAML:
		return parseYAML(r)
	case FormatText, "":
		return parseText(r)
	default:
		return nil, fmt.Errorf("calibration format: unsupported value %q", format)
	}
}

var commentMarkers = []string{"#", ";", "//"}

func parseText(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value, Line: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read calibration: %w", err)
	}
	return entries, nil
}

func stripComment(line string) string {
	cut := len(line)
	for _, marker := range commentMarkers {
		if idx := strings.Index(line, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return line[:cut]
}

// splitKeyValue accepts "key = value", "key: value" and "key value". The value
// is the first token after the separator so trailing units are tolerated.
func splitKeyValue(line string) (string, string, bool) {
	end := strings.IndexAny(line, " \t=:")
	if end <= 0 {
		return "", "", false
	}
	key := line[:end]
	rest := strings.TrimLeft(line[end:], " \t")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t")
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return key, "", true
	}
	return key, strings.Trim(fields[0], `"'`), true
}

func parseTOML(r io.Reader) ([]Entry, error) {
	doc := map[string]any{}
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse calibration toml: %w", err)
	}
	return flattenDocument(doc), nil
}

func parseYAML(r io.Reader) ([]Entry, error) {
	doc := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse calibration yaml: %w", err)
	}
	return flattenDocument(doc), nil
}

// flattenDocument turns nested tables into underscore-joined keys, so
// [rev] soft_limit_rpm and rev_soft_limit_rpm name the same calibration key.
// Keys are emitted in sorted order since decoded maps carry no order.
func flattenDocument(doc map[string]any) []Entry {
	var entries []Entry
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		names := make([]string, 0, len(node))
		for name := range node {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			key := name
			if prefix != "" {
				key = prefix + "_" + name
			}
			switch v := node[name].(type) {
			case map[string]any:
				walk(key, v)
			default:
				entries = append(entries, Entry{Key: key, Value: scalarString(v)})
			}
		}
	}
	walk("", doc)
	return entries
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		// Arrays and dates are never valid calibration values.
		return fmt.Sprintf("%v", t)
	}
}
