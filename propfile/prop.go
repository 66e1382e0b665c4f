// Package propfile implements reading and writing of .properties mod
// files for translation.
//
// Format: key=value pairs, one per line. Lines starting with '#' or '!'
// are comments and are preserved verbatim in the output, as are blank
// lines. Multi-line values (backslash continuation) are not supported —
// each line is treated independently.
//
// Properties files are flat, so the target-key filter of the structured
// formats does not apply: every non-empty value is a translation entry.
package propfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// lineKind classifies each line in the file.
type lineKind int

const (
	lineBlank   lineKind = iota // blank / whitespace-only line
	lineComment                 // comment line (starts with # or !)
	lineEntry                   // key=value pair
)

// line is a single line in the properties file.
type line struct {
	kind  lineKind
	raw   string // original text for comment lines
	key   string // only for lineEntry
	value string // only for lineEntry; replaced by Set
}

// File represents a parsed .properties file.
type File struct {
	// lines stores all lines in document order.
	lines []line
	// index maps key → index in lines.
	index map[string]int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .properties file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses .properties content from a byte slice.
func Parse(data []byte) (*File, error) {
	f := &File{index: make(map[string]int)}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	rawLines := strings.Split(text, "\n")

	// Drop trailing empty element from a file that ends with \n.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for _, raw := range rawLines {
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.lines = append(f.lines, line{kind: lineBlank, raw: raw})

		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
			f.lines = append(f.lines, line{kind: lineComment, raw: raw})

		default:
			k, v := splitKeyValue(trimmed)
			if k == "" {
				// Malformed line — treat as comment to preserve it.
				f.lines = append(f.lines, line{kind: lineComment, raw: raw})
				continue
			}
			if _, exists := f.index[k]; exists {
				// Duplicate key: overwrite value but keep position.
				f.lines[f.index[k]].value = v
				continue
			}
			idx := len(f.lines)
			f.lines = append(f.lines, line{kind: lineEntry, key: k, value: v})
			f.index[k] = idx
		}
	}

	return f, nil
}

// splitKeyValue splits "key=value" into key and value. The separator may
// be '=' or ':'. Surrounding whitespace is stripped.
func splitKeyValue(s string) (key, value string) {
	for i, ch := range s {
		if ch == '=' || ch == ':' {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	// No separator — treat the whole line as a key with empty value.
	return strings.TrimSpace(s), ""
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all property keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			keys = append(keys, ln.key)
		}
	}
	return keys
}

// Get returns the value for key and whether it was found.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok {
		return f.lines[idx].value, true
	}
	return "", false
}

// Set sets the value for an existing key. Returns false if the key does
// not exist.
func (f *File) Set(key, value string) bool {
	idx, ok := f.index[key]
	if !ok {
		return false
	}
	f.lines[idx].value = value
	return true
}

// Stats returns (total, nonEmpty) counts for the status display.
func (f *File) Stats() (total, nonEmpty int) {
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			total++
			if ln.value != "" {
				nonEmpty++
			}
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the file back to .properties format.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for _, ln := range f.lines {
		switch ln.kind {
		case lineBlank:
			buf.WriteByte('\n')
		case lineComment:
			buf.WriteString(ln.raw)
			buf.WriteByte('\n')
		case lineEntry:
			buf.WriteString(ln.key)
			buf.WriteByte('=')
			buf.WriteString(ln.value)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// WriteFile serialises and writes to path, creating parent directories.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
