package propfile

import (
	"strings"
	"testing"
)

func TestParseAndMarshal_PreservesLayout(t *testing.T) {
	data := []byte(`# Mod strings
item.sword=A rusty sword

! legacy comment
item.shield=A wooden shield
menu.title=
`)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	keys := f.Keys()
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %v", keys)
	}
	if keys[0] != "item.sword" || keys[1] != "item.shield" || keys[2] != "menu.title" {
		t.Fatalf("unexpected key order: %v", keys)
	}

	f.Set("item.sword", "錆びた剣")

	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "# Mod strings") || !strings.Contains(s, "! legacy comment") {
		t.Fatalf("comments lost:\n%s", s)
	}
	if !strings.Contains(s, "item.sword=錆びた剣") {
		t.Fatalf("translated value missing:\n%s", s)
	}
	if !strings.Contains(s, "\n\n") {
		t.Fatalf("blank line lost:\n%s", s)
	}
}

func TestParse_DuplicateAndMalformed(t *testing.T) {
	data := []byte(`key=first
key=second
just a stray line
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if v, _ := f.Get("key"); v != "second" {
		t.Fatalf("duplicate key value = %q, want second", v)
	}

	out, _ := f.Marshal()
	if !strings.Contains(string(out), "just a stray line") {
		t.Fatalf("malformed line not preserved:\n%s", out)
	}
}

func TestColonSeparator(t *testing.T) {
	f, err := Parse([]byte("greeting: Hello world\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if v, ok := f.Get("greeting"); !ok || v != "Hello world" {
		t.Fatalf("Get(greeting) = %q, %v", v, ok)
	}
}
