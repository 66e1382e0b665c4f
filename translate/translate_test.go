package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modlate/modlate/cache"
	"github.com/modlate/modlate/jsonfile"
)

// fakeServer returns an httptest server that uppercases every submitted
// string, plus a pointer to the number of API calls it received.
func fakeServer(t *testing.T) (*httptest.Server, *int, *[][]string) {
	t.Helper()
	calls := 0
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		calls++
		batches = append(batches, req.Text)

		var resp translateResponse
		for _, s := range req.Text {
			resp.Translations = append(resp.Translations, struct {
				Text                   string `json:"text"`
				DetectedSourceLanguage string `json:"detected_source_language,omitempty"`
			}{Text: strings.ToUpper(s)})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	return srv, &calls, &batches
}

func testOptions(srv *httptest.Server) Options {
	return Options{
		Provider: Provider{
			ID:      ProviderCustom,
			Name:    "test",
			BaseURL: srv.URL,
			APIKey:  "test-key",
		},
		SourceLang: "en",
		TargetLang: "ja",
	}
}

func TestStringsBatchCount(t *testing.T) {
	srv, calls, batches := fakeServer(t)
	defer srv.Close()

	texts := []string{"one", "two", "three", "four", "five"}
	opts := testOptions(srv)
	opts.BatchSize = 2

	got, err := Strings(context.Background(), texts, opts)
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	// ceil(5/2) = 3 calls
	if *calls != 3 {
		t.Fatalf("expected 3 API calls, got %d", *calls)
	}
	if len((*batches)[0]) != 2 || len((*batches)[2]) != 1 {
		t.Fatalf("unexpected batch sizes: %v", *batches)
	}
	want := []string{"ONE", "TWO", "THREE", "FOUR", "FIVE"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringsSkipsBlankAndPattern(t *testing.T) {
	srv, calls, _ := fakeServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	var err error
	opts.SkipPatterns, err = CompileSkipPatterns([]string{`^DO_NOT_`})
	if err != nil {
		t.Fatalf("CompileSkipPatterns: %v", err)
	}

	texts := []string{"hello", "", "   ", "DO_NOT_TRANSLATE", "world"}
	got, err := Strings(context.Background(), texts, opts)
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 API call, got %d", *calls)
	}
	want := []string{"HELLO", "", "   ", "DO_NOT_TRANSLATE", "WORLD"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringsLimit(t *testing.T) {
	srv, _, batches := fakeServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	opts.Limit = 2

	texts := []string{"a", "", "b", "c", "d"}
	got, err := Strings(context.Background(), texts, opts)
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	// Limit counts eligible strings, so the blank entry is not consumed.
	if len(*batches) != 1 || len((*batches)[0]) != 2 {
		t.Fatalf("unexpected batches: %v", *batches)
	}
	want := []string{"A", "", "B", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStringsTokenRoundTrip(t *testing.T) {
	srv, _, batches := fakeServer(t)
	defer srv.Close()

	opts := testOptions(srv)
	got, err := Strings(context.Background(), []string{"Hello (:3)"}, opts)
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	// The token must never reach the API.
	if sent := (*batches)[0][0]; sent != "Hello" {
		t.Fatalf("API received %q, want %q", sent, "Hello")
	}
	if got[0] != "HELLO (:3)" {
		t.Fatalf("got %q, want %q", got[0], "HELLO (:3)")
	}
}

func TestStringsCache(t *testing.T) {
	srv, calls, _ := fakeServer(t)
	defer srv.Close()

	c, err := cache.Load(t.TempDir())
	if err != nil {
		t.Fatalf("cache.Load: %v", err)
	}
	opts := testOptions(srv)
	opts.Cache = c

	if _, err := Strings(context.Background(), []string{"hello"}, opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("expected 1 API call after first run, got %d", *calls)
	}
	got, err := Strings(context.Background(), []string{"hello"}, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("cache hit still called the API (%d calls)", *calls)
	}
	if got[0] != "HELLO" {
		t.Fatalf("cached value = %q, want %q", got[0], "HELLO")
	}
}

func TestStringsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Strings(context.Background(), []string{"hello"}, testOptions(srv))
	if err == nil {
		t.Fatal("expected an error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q does not mention the status", err)
	}
}

func TestStringsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[]}`))
	}))
	defer srv.Close()

	_, err := Strings(context.Background(), []string{"hello"}, testOptions(srv))
	if err == nil {
		t.Fatal("expected an error on translation count mismatch")
	}
}

func TestTranslateSource(t *testing.T) {
	srv, _, _ := fakeServer(t)
	defer srv.Close()

	doc, err := jsonfile.Parse([]byte(`{"items":[{"text":"Hello (:3)","val":"ok","id":7}]}`), []string{"text", "val"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	changed, err := TranslateSource(context.Background(), doc, testOptions(srv))
	if err != nil {
		t.Fatalf("TranslateSource: %v", err)
	}
	if changed != 2 {
		t.Fatalf("changed = %d, want 2", changed)
	}

	out, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"HELLO (:3)"`) {
		t.Errorf("output missing translated text with token: %s", s)
	}
	if !strings.Contains(s, `"id": 7`) {
		t.Errorf("output lost non-target value: %s", s)
	}
}

func TestResolveProvider(t *testing.T) {
	if _, err := ResolveProvider("bogus", "", "k", "", 0); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := ResolveProvider(ProviderCustom, "", "k", "", 0); err == nil {
		t.Fatal("expected error when custom provider has no base URL")
	}
	if _, err := ResolveProvider(ProviderDeepL, "", "", "", 0); err == nil {
		t.Fatal("expected error when API key is missing")
	}
	if _, err := ResolveProvider(ProviderDeepL, "", "k", "://bad", 0); err == nil {
		t.Fatal("expected error for a malformed proxy URL")
	}
	if _, err := ResolveProvider(ProviderDeepL, "", "k", "proxy.local:8080", 0); err == nil {
		t.Fatal("expected error for a proxy URL without a scheme")
	}
	prov, err := ResolveProvider(ProviderDeepL, "", "k", "http://proxy.local:8080", 0)
	if err != nil {
		t.Fatalf("ResolveProvider: %v", err)
	}
	if prov.BaseURL != "https://api-free.deepl.com" {
		t.Errorf("BaseURL = %q", prov.BaseURL)
	}
	if prov.Proxy != "http://proxy.local:8080" {
		t.Errorf("Proxy = %q", prov.Proxy)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := "こんにちは世界"
	got := truncate(s, 3)
	if got != "こんに..." {
		t.Fatalf("truncate = %q", got)
	}
	if truncate("abc", 10) != "abc" {
		t.Fatal("short strings must pass through unchanged")
	}
}
