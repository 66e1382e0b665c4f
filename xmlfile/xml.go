// Package xmlfile implements translation of generic XML mod files.
//
// Every element's character data and every attribute value is a
// translation candidate, matching how loosely-structured mod XML mixes
// text between tags and inside attributes. Whitespace-only text nodes
// (indentation) are never candidates and are written back verbatim, so
// the output keeps the input's formatting. Comments and the element
// order are preserved.
package xmlfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// element is one XML element with its attributes and ordered children.
type element struct {
	name  xml.Name
	attrs []xml.Attr
	// children interleaves nested elements, text segments and comments
	// in document order.
	children []child
}

// child is a single slot inside an element: exactly one of elem, text
// or comment is set.
type child struct {
	elem    *element
	text    string
	comment string
	isText  bool
}

// slot addresses one translatable string: either a text segment or an
// attribute of an element.
type slot struct {
	elem    *element
	textIdx int // child index for text slots
	attrIdx int // attrs index for attribute slots
	isAttr  bool
}

// File is a parsed XML document.
type File struct {
	root  *element
	keys  []string
	index map[string]slot
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an XML file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses an XML document.
func Parse(data []byte) (*File, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *element
	var stack []*element

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := &element{name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = e
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, child{elem: e})
			}
			stack = append(stack, e)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, child{text: string(t), isText: true})
			}

		case xml.Comment:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, child{comment: string(t)})
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}

	f := &File{root: root, index: make(map[string]slot)}
	f.collect(root, root.name.Local)
	return f, nil
}

// collect walks the tree and registers every translatable slot.
// Paths look like mod.items.item[1] for elements, with @attr for
// attributes; repeated sibling tags get a positional index.
func (f *File) collect(e *element, path string) {
	for i, a := range e.attrs {
		if strings.TrimSpace(a.Value) == "" {
			continue
		}
		key := path + "@" + a.Name.Local
		f.keys = append(f.keys, key)
		f.index[key] = slot{elem: e, attrIdx: i, isAttr: true}
	}

	textSeen := 0
	for i, c := range e.children {
		if c.isText && strings.TrimSpace(c.text) != "" {
			key := path
			if textSeen > 0 {
				key = fmt.Sprintf("%s#%d", path, textSeen)
			}
			f.keys = append(f.keys, key)
			f.index[key] = slot{elem: e, textIdx: i}
			textSeen++
		}
	}

	// Count same-named siblings so repeated tags get stable indices.
	nameCount := make(map[string]int)
	for _, c := range e.children {
		if c.elem != nil {
			nameCount[c.elem.name.Local]++
		}
	}
	nameSeen := make(map[string]int)
	for _, c := range e.children {
		if c.elem == nil {
			continue
		}
		childPath := path + "." + c.elem.name.Local
		if nameCount[c.elem.name.Local] > 1 {
			childPath = fmt.Sprintf("%s[%d]", childPath, nameSeen[c.elem.name.Local])
		}
		nameSeen[c.elem.name.Local]++
		f.collect(c.elem, childPath)
	}
}

// ---------------------------------------------------------------------------
// Document surface
// ---------------------------------------------------------------------------

// Keys returns the translatable slot paths in document order.
func (f *File) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Get returns the trimmed text of a slot.
func (f *File) Get(key string) (string, bool) {
	s, ok := f.index[key]
	if !ok {
		return "", false
	}
	if s.isAttr {
		return s.elem.attrs[s.attrIdx].Value, true
	}
	return strings.TrimSpace(s.elem.children[s.textIdx].text), true
}

// Set replaces a slot's text. For text slots the surrounding
// whitespace of the original segment is kept.
func (f *File) Set(key, value string) bool {
	s, ok := f.index[key]
	if !ok {
		return false
	}
	if s.isAttr {
		s.elem.attrs[s.attrIdx].Value = value
		return true
	}
	old := s.elem.children[s.textIdx].text
	trimmed := strings.TrimSpace(old)
	lead := old[:strings.Index(old, trimmed)]
	trail := old[len(lead)+len(trimmed):]
	s.elem.children[s.textIdx].text = lead + value + trail
	return true
}

// Stats returns the number of translatable slots; every collected slot
// is non-blank by construction.
func (f *File) Stats() (total, nonEmpty int) {
	return len(f.keys), len(f.keys)
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal renders the document with an XML declaration, preserving the
// input's element order, comments and inter-tag whitespace.
func (f *File) Marshal() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	writeElement(&b, f.root)
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeElement(b *bytes.Buffer, e *element) {
	b.WriteByte('<')
	b.WriteString(e.name.Local)
	for _, a := range e.attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name.Local)
		b.WriteString(`="`)
		b.WriteString(escapeXML(a.Value))
		b.WriteByte('"')
	}

	if len(e.children) == 0 {
		b.WriteString("/>")
		return
	}

	b.WriteByte('>')
	for _, c := range e.children {
		switch {
		case c.elem != nil:
			writeElement(b, c.elem)
		case c.isText:
			b.WriteString(escapeXML(c.text))
		default:
			b.WriteString("<!--")
			b.WriteString(c.comment)
			b.WriteString("-->")
		}
	}
	b.WriteString("</")
	b.WriteString(e.name.Local)
	b.WriteByte('>')
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// WriteFile serialises the document and writes it to path.
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
