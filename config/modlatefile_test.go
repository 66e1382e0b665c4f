package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeModlateFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ModlateFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadModlateFile_Missing(t *testing.T) {
	mf, err := LoadModlateFile(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mf != nil {
		t.Fatal("expected nil for missing config")
	}
}

func TestLoadModlateFile_Valid(t *testing.T) {
	dir := t.TempDir()
	writeModlateFile(t, dir, `
target_lang: de
keys: [text, name, description]
batch_size: 10
limit: 25
batch_delay: 600ms
skip:
  - "^https?://"
backup: true
`)
	mf, err := LoadModlateFile(dir)
	if err != nil {
		t.Fatalf("LoadModlateFile error: %v", err)
	}

	s := Resolve(mf)
	if s.TargetLang != "de" || s.SourceLang != "en" {
		t.Fatalf("langs = %s -> %s", s.SourceLang, s.TargetLang)
	}
	if len(s.Keys) != 3 || s.Keys[1] != "name" {
		t.Fatalf("keys = %v", s.Keys)
	}
	if s.BatchSize != 10 || s.Limit != 25 {
		t.Fatalf("batch=%d limit=%d", s.BatchSize, s.Limit)
	}
	if s.BatchDelay != 600*time.Millisecond {
		t.Fatalf("delay = %v", s.BatchDelay)
	}
	if len(s.Skip) != 1 || !s.Backup {
		t.Fatalf("skip=%v backup=%v", s.Skip, s.Backup)
	}
}

func TestLoadModlateFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "keys: [unclosed"},
		{"negative batch", "batch_size: -1"},
		{"bad delay", "batch_delay: soon"},
	}
	for _, tc := range tests {
		dir := t.TempDir()
		writeModlateFile(t, dir, tc.content)
		if _, err := LoadModlateFile(dir); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestResolve_Defaults(t *testing.T) {
	s := Resolve(nil)
	if s.SourceLang != DefaultSourceLang || s.TargetLang != DefaultTargetLang {
		t.Fatalf("langs = %s -> %s", s.SourceLang, s.TargetLang)
	}
	if s.BatchSize != DefaultBatchSize || s.Limit != 0 {
		t.Fatalf("batch=%d limit=%d", s.BatchSize, s.Limit)
	}
	if s.BatchDelay != time.Second {
		t.Fatalf("delay = %v", s.BatchDelay)
	}
	if len(s.Keys) != 2 || s.Keys[0] != "text" || s.Keys[1] != "val" {
		t.Fatalf("keys = %v", s.Keys)
	}
}
