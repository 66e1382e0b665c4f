package yamlfile

import (
	"strings"
	"testing"
)

var targetKeys = []string{"text", "val"}

func TestParse_CollectsTargetKeys(t *testing.T) {
	data := []byte(`name: sample-mod
items:
  - id: 1
    text: A rusty sword
  - id: 2
    text: A wooden shield
    val: Blocks arrows
dialog:
  text: Hello there
`)

	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := []string{"items[0].text", "items[1].text", "items[1].val", "dialog.text"}
	keys := f.Keys()
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if _, ok := f.Get("name"); ok {
		t.Fatal("non-target key collected")
	}
}

func TestParse_SkipsNonStringScalars(t *testing.T) {
	data := []byte(`text: 42
other:
  text: true
real:
  text: actual words
`)
	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	keys := f.Keys()
	if len(keys) != 1 || keys[0] != "real.text" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestSetAndMarshal_RoundTrip(t *testing.T) {
	data := []byte(`id: 7
text: Hello
nested:
  val: World
`)
	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	f.Set("text", "こんにちは")
	f.Set("nested.val", "世界: へようこそ")

	out, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "id: 7") {
		t.Fatalf("non-target value lost:\n%s", s)
	}
	if !strings.Contains(s, "こんにちは") {
		t.Fatalf("translated value missing:\n%s", s)
	}

	// Reparse and confirm the value with a colon survived intact.
	f2, err := Parse(out, targetKeys)
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if v, _ := f2.Get("nested.val"); v != "世界: へようこそ" {
		t.Fatalf("round-trip value = %q", v)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	f, err := Parse(nil, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(f.Keys()) != 0 {
		t.Fatalf("expected no entries, got %v", f.Keys())
	}
	if _, err := f.Marshal(); err != nil {
		t.Fatalf("Marshal error on empty doc: %v", err)
	}
}

func TestParse_SequenceUnderTargetKey(t *testing.T) {
	data := []byte(`text:
  - first line
  - second line
`)
	f, err := Parse(data, targetKeys)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "text[0]" || keys[1] != "text[1]" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
