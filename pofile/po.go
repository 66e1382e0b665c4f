// Package pofile implements reading and writing of gettext PO files for
// translation. Unlike the structured formats, a PO file carries its own
// source/translation pairing: the translatable strings are the msgids of
// entries whose msgstr is still empty, and translations are written into
// msgstr. Already-translated and fuzzy entries are left alone.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry is one message in a PO file.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" source locations.
	References []string
	// Flags are "#," flags such as fuzzy or c-format.
	Flags []string
	// Previous are "#|" previous-msgid lines, kept verbatim.
	Previous []string

	// MsgCtxt is the msgctxt disambiguation context.
	MsgCtxt string
	// MsgID is the untranslated string.
	MsgID string
	// MsgIDPlural is the untranslated plural string.
	MsgIDPlural string
	// MsgStr is the translation (singular entries).
	MsgStr string
	// MsgStrPlural maps plural form index to translation.
	MsgStrPlural map[int]string

	// Obsolete marks "#~" entries.
	Obsolete bool
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// needsTranslation reports whether this entry's msgid should be sent for
// translation. Plural entries are excluded: one translated string cannot
// fill several plural forms.
func (e *Entry) needsTranslation() bool {
	if e.Obsolete || e.IsFuzzy() {
		return false
	}
	if strings.TrimSpace(e.MsgID) == "" || e.MsgIDPlural != "" {
		return false
	}
	return strings.TrimSpace(e.MsgStr) == ""
}

// key returns the lookup key for the entry, msgctxt-qualified the way
// gettext catalogs disambiguate contexts.
func (e *Entry) key() string {
	if e.MsgCtxt != "" {
		return e.MsgCtxt + "\x04" + e.MsgID
	}
	return e.MsgID
}

// File is a parsed PO file.
type File struct {
	// Header is the msgid "" metadata entry, if present.
	Header *Entry
	// Entries are the message entries in file order.
	Entries []*Entry

	index map[string]*Entry
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a PO file from a reader.
func Parse(r io.Reader) (*File, error) {
	f := &File{index: make(map[string]*Entry)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var current *Entry
	var lastField string
	lineNum := 0

	flush := func() {
		if current == nil {
			return
		}
		if current.MsgID == "" && !current.Obsolete {
			f.Header = current
		} else {
			f.Entries = append(f.Entries, current)
			f.index[current.key()] = current
		}
		current = nil
		lastField = ""
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current == nil {
			current = &Entry{MsgStrPlural: make(map[int]string)}
		}

		if strings.HasPrefix(line, "#~ ") {
			current.Obsolete = true
			line = line[3:]
		}

		if strings.HasPrefix(line, "#") {
			switch {
			case strings.HasPrefix(line, "#:"):
				current.References = append(current.References, strings.TrimSpace(line[2:]))
			case strings.HasPrefix(line, "#,"):
				for _, flag := range strings.Split(line[2:], ",") {
					if flag = strings.TrimSpace(flag); flag != "" {
						current.Flags = append(current.Flags, flag)
					}
				}
			case strings.HasPrefix(line, "#."):
				current.ExtractedComments = append(current.ExtractedComments, strings.TrimSpace(line[2:]))
			case strings.HasPrefix(line, "#|"):
				current.Previous = append(current.Previous, strings.TrimSpace(line[2:]))
			default:
				comment := strings.TrimPrefix(line[1:], " ")
				current.TranslatorComments = append(current.TranslatorComments, comment)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "msgctxt "):
			current.MsgCtxt = unquote(strings.TrimPrefix(line, "msgctxt "))
			lastField = "msgctxt"
		case strings.HasPrefix(line, "msgid_plural "):
			current.MsgIDPlural = unquote(strings.TrimPrefix(line, "msgid_plural "))
			lastField = "msgid_plural"
		case strings.HasPrefix(line, "msgid "):
			current.MsgID = unquote(strings.TrimPrefix(line, "msgid "))
			lastField = "msgid"
		case strings.HasPrefix(line, "msgstr["):
			var idx int
			if n, err := fmt.Sscanf(line, "msgstr[%d]", &idx); err != nil || n != 1 {
				return nil, fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
			}
			bracketEnd := strings.Index(line, "] ")
			if bracketEnd < 0 {
				return nil, fmt.Errorf("line %d: invalid msgstr format: %s", lineNum, line)
			}
			current.MsgStrPlural[idx] = unquote(line[bracketEnd+2:])
			lastField = fmt.Sprintf("msgstr[%d]", idx)
		case strings.HasPrefix(line, "msgstr "):
			current.MsgStr = unquote(strings.TrimPrefix(line, "msgstr "))
			lastField = "msgstr"
		case strings.HasPrefix(line, "\""):
			val := unquote(line)
			switch {
			case lastField == "msgctxt":
				current.MsgCtxt += val
			case lastField == "msgid":
				current.MsgID += val
			case lastField == "msgid_plural":
				current.MsgIDPlural += val
			case lastField == "msgstr":
				current.MsgStr += val
			case strings.HasPrefix(lastField, "msgstr["):
				var idx int
				fmt.Sscanf(lastField, "msgstr[%d]", &idx)
				current.MsgStrPlural[idx] += val
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Document surface
// ---------------------------------------------------------------------------

// Keys returns the keys of the entries still needing translation, in
// file order. Keys of msgctxt entries are context-qualified.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.Entries {
		if e.needsTranslation() {
			keys = append(keys, e.key())
		}
	}
	return keys
}

// Get returns the untranslated source text for a key.
func (f *File) Get(key string) (string, bool) {
	e, ok := f.index[key]
	if !ok {
		return "", false
	}
	return e.MsgID, true
}

// Set writes the translation into the entry's msgstr.
func (f *File) Set(key, value string) bool {
	e, ok := f.index[key]
	if !ok {
		return false
	}
	e.MsgStr = value
	return true
}

// Stats returns the number of message entries and how many still need
// translation.
func (f *File) Stats() (total, untranslated int) {
	for _, e := range f.Entries {
		if e.Obsolete || e.MsgID == "" {
			continue
		}
		total++
		if e.needsTranslation() {
			untranslated++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal renders the PO file.
func (f *File) Marshal() ([]byte, error) {
	var b strings.Builder
	if f.Header != nil {
		writeEntry(&b, f.Header)
	}
	for _, e := range f.Entries {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		writeEntry(&b, e)
	}
	return []byte(b.String()), nil
}

// WriteFile writes the PO file to disk.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeEntry(b *strings.Builder, e *Entry) {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	for _, c := range e.TranslatorComments {
		fmt.Fprintf(b, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(b, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(b, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(b, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	for _, p := range e.Previous {
		fmt.Fprintf(b, "#| %s\n", p)
	}

	if e.MsgCtxt != "" {
		writeQuotedField(b, prefix+"msgctxt", e.MsgCtxt)
	}
	writeQuotedField(b, prefix+"msgid", e.MsgID)
	if e.MsgIDPlural != "" {
		writeQuotedField(b, prefix+"msgid_plural", e.MsgIDPlural)
		indices := make([]int, 0, len(e.MsgStrPlural))
		for idx := range e.MsgStrPlural {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			writeQuotedField(b, fmt.Sprintf("%smsgstr[%d]", prefix, idx), e.MsgStrPlural[idx])
		}
	} else {
		writeQuotedField(b, prefix+"msgstr", e.MsgStr)
	}
}

// writeQuotedField writes a PO field with multiline quoting.
func writeQuotedField(b *strings.Builder, field, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(b, "%s %s\n", field, quote(value))
		return
	}
	fmt.Fprintf(b, "%s \"\"\n", field)
	parts := strings.Split(value, "\n")
	for i, part := range parts {
		if i < len(parts)-1 {
			fmt.Fprintf(b, "%s\n", quote(part+"\n"))
		} else if part != "" {
			fmt.Fprintf(b, "%s\n", quote(part))
		}
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return `"` + s + `"`
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
				i++
			case 't':
				result.WriteByte('\t')
				i++
			case '\\':
				result.WriteByte('\\')
				i++
			case '"':
				result.WriteByte('"')
				i++
			default:
				result.WriteByte(s[i])
			}
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}
