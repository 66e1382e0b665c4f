// Package yamlfile implements reading and writing of YAML mod documents
// for translation.
//
// The document is kept as a yaml.Node tree so that round-trip output
// preserves structure, key order and scalar styles. Translatable entries
// are string scalars stored under a target key:
//
//	items:
//	  - text: A rusty sword
//	    id: 1
//	dialog:
//	  text: Hello there
//
// Sequences are traversed; their elements inherit the nearest enclosing
// mapping key, so lists under "text:" are eligible element by element.
// Non-string scalars (numbers, booleans, null) pass through unchanged.
package yamlfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Entry represents a single translatable leaf value.
type Entry struct {
	// Path is the dotted key path with sequence indexes (e.g. "items[0].text").
	Path string
	// Value is the current value.
	Value string
}

// File represents a parsed YAML mod document.
type File struct {
	// doc is the root yaml.Node, used for round-trip writing.
	doc *yaml.Node
	// entries stores all translatable entries in document order.
	entries []Entry
	// index maps path → index in entries.
	index map[string]int
	// nodes maps path → scalar node, for apply.
	nodes map[string]*yaml.Node
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a YAML document, collecting entries for the
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

// Parse parses YAML data, collecting entries for the given target keys.
func Parse(data []byte, targetKeys []string) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{
		doc:   &doc,
		index: make(map[string]int),
		nodes: make(map[string]*yaml.Node),
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document.
		return f, nil
	}

	targets := make(map[string]bool, len(targetKeys))
	for _, k := range targetKeys {
		targets[k] = true
	}
	f.collect(doc.Content[0], "", "", targets)
	return f, nil
}

// collect walks the node tree in document order and records an entry for
// every string scalar stored under a target key.
func (f *File) collect(n *yaml.Node, path, key string, targets map[string]bool) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			valNode := n.Content[i+1]
			childPath := keyNode.Value
			if path != "" {
				childPath = path + "." + keyNode.Value
			}
			f.collect(valNode, childPath, keyNode.Value, targets)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			f.collect(item, path+"["+strconv.Itoa(i)+"]", key, targets)
		}
	case yaml.ScalarNode:
		if !targets[key] {
			return
		}
		switch n.Tag {
		case "!!bool", "!!int", "!!float", "!!null":
			return
		}
		idx := len(f.entries)
		f.entries = append(f.entries, Entry{Path: path, Value: n.Value})
		f.index[path] = idx
		f.nodes[path] = n
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

	node := f.nodes[path]
	node.Value = value
	// A plain-style scalar that gains characters with YAML meaning must be
	// quoted on output; let the encoder decide by clearing a stale style.
	if node.Style == yaml.SingleQuotedStyle || node.Style == yaml.DoubleQuotedStyle {
		node.Style = yaml.DoubleQuotedStyle
	} else {
		node.Style = 0
	}
	return true
}

// Stats returns (total, translated) counts for the status display.
func (f *File) Stats() (total, nonEmpty int) {
	total = len(f.entries)
	for _, e := range f.entries {
		if e.Value != "" {
			nonEmpty++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the document back to YAML.
func (f *File) Marshal() ([]byte, error) {
	if f.doc == nil || f.doc.Kind == 0 {
		return nil, nil
	}
	return yaml.Marshal(f.doc)
}

// WriteFile serialises the document and writes it to path.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
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
