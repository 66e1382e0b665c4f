// Package txtfile implements reading and writing of plain-text mod files
// for translation.
//
// Every non-blank line is a translation entry, keyed by its 1-based line
// number. Blank lines and the overall line order are preserved on
// round-trip. Trailing newline handling follows the input.
package txtfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File represents a parsed plain-text file.
type File struct {
	// lines stores every line in document order, without newlines.
	lines []string
	// index maps entry key ("12") → index in lines.
	index map[string]int
	// keys holds entry keys in document order.
	keys []string
	// trailingNewline records whether the input ended with \n.
	trailingNewline bool
}

// ParseFile reads and parses a plain-text file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data), nil
}

// Parse parses plain-text content.
func Parse(data []byte) *File {
	f := &File{index: make(map[string]int)}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	f.trailingNewline = strings.HasSuffix(text, "\n")
	if f.trailingNewline {
		text = strings.TrimSuffix(text, "\n")
	}
	if text == "" {
		return f
	}

	f.lines = strings.Split(text, "\n")
	for i, ln := range f.lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		key := strconv.Itoa(i + 1)
		f.index[key] = i
		f.keys = append(f.keys, key)
	}
	return f
}

// Keys returns the entry keys (line numbers) in document order.
func (f *File) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the line for the given key.
func (f *File) Get(key string) (string, bool) {
	idx, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.lines[idx], true
}

// Set replaces the line for the given key.
func (f *File) Set(key, value string) bool {
	idx, ok := f.index[key]
	if !ok {
		return false
	}
	f.lines[idx] = value
	return true
}

// Stats returns (total, nonEmpty) counts for the status display.
// For plain text every entry is non-blank by construction.
func (f *File) Stats() (total, nonEmpty int) {
	return len(f.keys), len(f.keys)
}

// Marshal serialises the file back to plain text.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for i, ln := range f.lines {
		buf.WriteString(ln)
		if i < len(f.lines)-1 || f.trailingNewline {
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
