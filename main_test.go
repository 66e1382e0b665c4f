package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")

	if fileExists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !fileExists(path) {
		t.Fatal("existing file reported as missing")
	}
	if fileExists(dir) {
		t.Fatal("directory reported as a file")
	}
}

func TestParseDocumentDispatch(t *testing.T) {
	dir := t.TempDir()
	keys := []string{"text", "val"}

	cases := []struct {
		name    string
		content string
		key     string
		want    string
	}{
		{"a.json", `{"text":"hi"}`, "text", "hi"},
		{"a.yaml", "text: hi\n", "text", "hi"},
		{"a.properties", "greet=hi\n", "greet", "hi"},
		{"a.txt", "hi\n", "1", "hi"},
		{"a.po", "msgid \"hi\"\nmsgstr \"\"\n", "hi", "hi"},
		{"a.xml", "<mod><text>hi</text></mod>", "mod.text", "hi"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name)
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatal(err)
		}
		doc, err := parseDocument(path, keys)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got, ok := doc.Get(tc.key); !ok || got != tc.want {
			t.Errorf("%s: Get(%q) = %q, %v", tc.name, tc.key, got, ok)
		}
	}

	bad := filepath.Join(dir, "a.exe")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := parseDocument(bad, keys); err == nil {
		t.Fatal("expected an error for an unhandled extension")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("MODLATE_API_KEY", "from-modlate")
	t.Setenv("DEEPL_API_KEY", "from-deepl")

	if got := resolveAPIKey("from-flag"); got != "from-flag" {
		t.Fatalf("flag should win, got %q", got)
	}
	if got := resolveAPIKey(""); got != "from-modlate" {
		t.Fatalf("MODLATE_API_KEY should beat DEEPL_API_KEY, got %q", got)
	}
	t.Setenv("MODLATE_API_KEY", "")
	if got := resolveAPIKey(""); got != "from-deepl" {
		t.Fatalf("DEEPL_API_KEY fallback failed, got %q", got)
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "mods.json")
	if err := os.WriteFile(src, []byte(`{"text":"hi"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	backupDir := filepath.Join(dir, ".modlate_backup_test")
	if err := backupFile(src, backupDir); err != nil {
		t.Fatalf("backupFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(backupDir, "mods.json"))
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(data) != `{"text":"hi"}` {
		t.Fatalf("backup content = %q", data)
	}
}

func TestAppendRunLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modlate_log.csv")

	appendRunLog(path, "mods.json", 10, 8, "OK", "", 1500*time.Millisecond)
	appendRunLog(path, "extra.yaml", 3, 0, "ERROR", "boom", 20*time.Millisecond)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][4] != "status" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "mods.json" || rows[1][3] != "8" || rows[1][4] != "OK" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][4] != "ERROR" || !strings.Contains(rows[2][5], "boom") {
		t.Fatalf("unexpected error row: %v", rows[2])
	}
}
