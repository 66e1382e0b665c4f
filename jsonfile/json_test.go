package jsonfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var targetKeys = []string{"text", "val"}

func TestParse_CollectsTargetKeyStringsInOrder(t *testing.T) {
	data := []byte(`{
  "name": "sample-mod",
  "items": [
    {"id": 1, "text": "A rusty sword"},
    {"id": 2, "text": "A wooden shield", "val": "Blocks arrows"}
  ],
  "meta": {"text": "About this mod", "count": 3}
}`)

	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := []string{"items[0].text", "items[1].text", "items[1].val", "meta.text"}
	keys := f.Keys()
	if len(keys) != len(want) {
		t.Fatalf("got %d entries %v, want %d", len(keys), keys, len(want))
	}
	for i, w := range want {
		if keys[i] != w {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], w)
		}
	}

	if v, ok := f.Get("items[1].val"); !ok || v != "Blocks arrows" {
		t.Fatalf("Get(items[1].val) = %q, %v", v, ok)
	}

	// "name" is not a target key and must not be collected.
	if _, ok := f.Get("name"); ok {
		t.Fatal("non-target key collected")
	}
}

func TestParse_StringArrayUnderTargetKey(t *testing.T) {
	data := []byte(`{"text": ["line one", "line two"], "tags": ["raw", "keep"]}`)

	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "text[0]" || keys[1] != "text[1]" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestMarshal_PreservesStructure(t *testing.T) {
	data := []byte(`{
  "version": 1.50,
  "enabled": true,
  "empty": null,
  "items": [
    {"text": "Hello", "weight": 0.25}
  ],
  "tags": []
}`)

	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	f.Set("items[0].text", "こんにちは")

	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(out)

	// Scalar literals survive exactly (1.50 must not become 1.5).
	for _, want := range []string{`"version": 1.50`, `"enabled": true`, `"empty": null`, `"weight": 0.25`, `"tags": []`, `"text": "こんにちは"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("output missing %q:\n%s", want, s)
		}
	}

	// Key order preserved.
	if strings.Index(s, `"version"`) > strings.Index(s, `"enabled"`) {
		t.Fatalf("key order changed:\n%s", s)
	}

	// Reparse: the translated value reads back and the shape is identical.
	f2, err := Parse(out, targetKeys)
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if v, _ := f2.Get("items[0].text"); v != "こんにちは" {
		t.Fatalf("round-trip value = %q", v)
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	f, err := Parse([]byte(`{"text": "<color=\"red\"> & more"}`), targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(out), `<color=\"red\"> & more`) {
		t.Fatalf("HTML characters escaped:\n%s", out)
	}
}

func TestSet_UnknownPath(t *testing.T) {
	f, err := Parse([]byte(`{"text": "hi"}`), targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Set("nope", "x") {
		t.Fatal("Set on unknown path returned true")
	}
	if !f.Set("text", "yo") {
		t.Fatal("Set on known path returned false")
	}
}

func TestParse_DuplicateObjectKeys(t *testing.T) {
	f, err := Parse([]byte(`{"text": "first", "text": "second"}`), targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	keys := f.Keys()
	if len(keys) != 1 || keys[0] != "text" {
		t.Fatalf("Keys() = %v, want [text]", keys)
	}
	if got, _ := f.Get("text"); got != "second" {
		t.Fatalf("Get(text) = %q, want the last occurrence", got)
	}

	if !f.Set("text", "translated") {
		t.Fatal("Set returned false")
	}
	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	// Both occurrences are kept in the output; Set addressed the last.
	s := string(out)
	if !strings.Contains(s, `"text": "first"`) || !strings.Contains(s, `"text": "translated"`) {
		t.Fatalf("unexpected output:\n%s", s)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(`{"broken":`), targetKeys); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if _, err := Parse([]byte(`{} trailing`), targetKeys); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseFile_And_WriteFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mods.json")
	if err := os.WriteFile(in, []byte(`{"items":[{"text":"Hello (:3)"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := ParseFile(in, []string{"text"})
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if keys := f.Keys(); len(keys) != 1 || keys[0] != "items[0].text" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	out := filepath.Join(dir, "mods_jp.json")
	if err := f.WriteFile(out); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}
