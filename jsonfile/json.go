// Package jsonfile implements reading and writing of arbitrary JSON mod
// documents for translation.
//
// The document is parsed into an ordered tree so that round-trip output
// preserves object key order, array lengths, and scalar literals exactly.
// Translatable entries are string values whose object key is in the
// configured target-key set (e.g. "text", "val"); everything else passes
// through unchanged. Entries are addressed by a dotted path with array
// indexes:
//
//	items[0].text
//	dialog.lines[2].val
//
// Output is written with 2-space indentation and without escaping of
// non-ASCII characters, matching common mod file conventions.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

type nodeKind int

const (
	kindObject nodeKind = iota
	kindArray
	kindString
	kindLiteral // number, bool, null — kept as the original literal text
)

// member is a single ordered key/value pair of an object node.
type member struct {
	key   string
	value *node
}

type node struct {
	kind    nodeKind
	members []member // kindObject
	items   []*node  // kindArray
	str     string   // kindString
	literal string   // kindLiteral, verbatim JSON text
}

// Entry represents a single translatable string value.
type Entry struct {
	// Path is the dotted key path with array indexes (e.g. "items[0].text").
	Path string
	// Value is the current string value.
	Value string
}

// File represents a parsed JSON mod document.
type File struct {
	root    *node
	entries []Entry
	index   map[string]int
	nodes   map[string]*node // path → string node, for apply
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a JSON document, collecting entries for the
// given target keys.
func ParseFile(path string, targetKeys []string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data, targetKeys)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses JSON data, collecting entries for the given target keys.
func Parse(data []byte, targetKeys []string) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	// The document must be a single JSON value.
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("parsing JSON: trailing data after document")
	}

	f := &File{
		root:  root,
		index: make(map[string]int),
		nodes: make(map[string]*node),
	}

	targets := make(map[string]bool, len(targetKeys))
	for _, k := range targetKeys {
		targets[k] = true
	}
	f.collect(root, "", "", targets)
	return f, nil
}

// parseValue reads one JSON value from the decoder into a node.
func parseValue(dec *json.Decoder) (*node, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseToken(dec, t)
}

func parseToken(dec *json.Decoder, t json.Token) (*node, error) {
	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &node{kind: kindObject}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", kt)
				}
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				n.members = append(n.members, member{key: key, value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return n, nil
		case '[':
			n := &node{kind: kindArray}
			for dec.More() {
				item, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return n, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", v)
		}
	case string:
		return &node{kind: kindString, str: v}, nil
	case json.Number:
		return &node{kind: kindLiteral, literal: v.String()}, nil
	case bool:
		if v {
			return &node{kind: kindLiteral, literal: "true"}, nil
		}
		return &node{kind: kindLiteral, literal: "false"}, nil
	case nil:
		return &node{kind: kindLiteral, literal: "null"}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", t)
	}
}

// collect walks the tree in document order and records an entry for every
// string value stored under a target key. Arrays are traversed under the
// key of the nearest enclosing object member, so strings inside
// "text": ["a", "b"] are also eligible.
func (f *File) collect(n *node, path, key string, targets map[string]bool) {
	switch n.kind {
	case kindObject:
		for _, m := range n.members {
			childPath := m.key
			if path != "" {
				childPath = path + "." + m.key
			}
			f.collect(m.value, childPath, m.key, targets)
		}
	case kindArray:
		for i, item := range n.items {
			f.collect(item, path+"["+strconv.Itoa(i)+"]", key, targets)
		}
	case kindString:
		if targets[key] {
			if idx, ok := f.index[path]; ok {
				// Duplicate object key: the last occurrence wins and
				// stays the only entry for the path.
				f.entries[idx].Value = n.str
				f.nodes[path] = n
				return
			}
			idx := len(f.entries)
			f.entries = append(f.entries, Entry{Path: path, Value: n.str})
			f.index[path] = idx
			f.nodes[path] = n
		}
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all entry paths in document order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Path
	}
	return keys
}

// Get returns the current value for the given path.
func (f *File) Get(path string) (string, bool) {
	idx, ok := f.index[path]
	if !ok {
		return "", false
	}
	return f.entries[idx].Value, true
}

// Set updates the value for the given path.
// Returns false if the path is not a translatable entry.
func (f *File) Set(path, value string) bool {
	idx, ok := f.index[path]
	if !ok {
		return false
	}
	f.entries[idx].Value = value
	f.nodes[path].str = value
	return true
}

// Entries returns a copy of all translatable entries in document order.
func (f *File) Entries() []Entry {
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Stats returns (total, translated) counts, where translated means the
// value differs from empty. Used by the status display.
func (f *File) Stats() (total, nonEmpty int) {
	total = len(f.entries)
	for _, e := range f.entries {
		if strings.TrimSpace(e.Value) != "" {
			nonEmpty++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the document with 2-space indentation. Object key
// order, array order and non-string scalars are reproduced exactly.
func (f *File) Marshal() ([]byte, error) {
	var b bytes.Buffer
	if err := writeNode(&b, f.root, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeNode(b *bytes.Buffer, n *node, depth int) error {
	indent := strings.Repeat("  ", depth)
	child := strings.Repeat("  ", depth+1)

	switch n.kind {
	case kindObject:
		if len(n.members) == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		for i, m := range n.members {
			b.WriteString(child)
			b.WriteString(jsonString(m.key))
			b.WriteString(": ")
			if err := writeNode(b, m.value, depth+1); err != nil {
				return err
			}
			if i < len(n.members)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteByte('}')
	case kindArray:
		if len(n.items) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, item := range n.items {
			b.WriteString(child)
			if err := writeNode(b, item, depth+1); err != nil {
				return err
			}
			if i < len(n.items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteByte(']')
	case kindString:
		b.WriteString(jsonString(n.str))
	case kindLiteral:
		b.WriteString(n.literal)
	}
	return nil
}

// jsonString encodes s as a JSON string without HTML escaping, so that
// Japanese text and markup characters stay readable in the output.
func jsonString(s string) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encode never fails for a plain string.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// WriteFile serialises the document and writes it to path, creating
// parent directories as needed.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
