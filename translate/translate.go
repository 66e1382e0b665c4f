// Package translate implements batched machine translation of mod strings
// over the DeepL HTTP API (or any DeepL-compatible endpoint).
//
// Execution is strictly sequential: strings are grouped into fixed-size
// batches, each batch is one API call, and a configurable delay separates
// consecutive calls to respect the endpoint's rate limits. An API error
// aborts the run; there is no retry logic.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/modlate/modlate/cache"
	"github.com/modlate/modlate/langmeta"
	"github.com/modlate/modlate/tokens"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

const (
	ProviderDeepL    = "deepl"
	ProviderDeepLPro = "deepl-pro"
	ProviderCustom   = "custom"
)

// Provider holds the configuration for a translation endpoint.
type Provider struct {
	// ID is the provider identifier (deepl, deepl-pro, custom).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderDeepL: {
			ID:      ProviderDeepL,
			Name:    "DeepL (free)",
			BaseURL: "https://api-free.deepl.com",
			Timeout: 15 * time.Second,
		},
		ProviderDeepLPro: {
			ID:      ProviderDeepLPro,
			Name:    "DeepL (pro)",
			BaseURL: "https://api.deepl.com",
			Timeout: 15 * time.Second,
		},
		ProviderCustom: {
			ID:      ProviderCustom,
			Name:    "Custom endpoint",
			Timeout: 15 * time.Second,
		},
	}
}

// ResolveProvider builds a Provider from an ID plus overrides.
func ResolveProvider(id, baseURL, apiKey, proxy string, timeout time.Duration) (Provider, error) {
	prov, ok := DefaultProviders()[id]
	if !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (want deepl, deepl-pro or custom)", id)
	}
	if baseURL != "" {
		prov.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if prov.BaseURL == "" {
		return Provider{}, fmt.Errorf("provider %s requires --base-url", id)
	}
	if apiKey == "" {
		return Provider{}, fmt.Errorf("no API key: set MODLATE_API_KEY (or DEEPL_API_KEY), or pass --api-key")
	}
	prov.APIKey = apiKey
	if proxy != "" {
		parsed, err := url.Parse(proxy)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return Provider{}, fmt.Errorf("invalid proxy URL %q (want e.g. http://host:port)", proxy)
		}
		prov.Proxy = proxy
	}
	if timeout > 0 {
		prov.Timeout = timeout
	}
	return prov, nil
}

// ---------------------------------------------------------------------------
// Translation options
// ---------------------------------------------------------------------------

// Options controls the translation behavior.
type Options struct {
	// Provider is the endpoint configuration.
	Provider Provider
	// SourceLang is the source language code (e.g. "en").
	SourceLang string
	// TargetLang is the target language code (e.g. "ja").
	TargetLang string
	// BatchSize is how many strings to submit per API call.
	BatchSize int
	// Limit restricts a run to the first N eligible strings (0 = all).
	Limit int
	// BatchDelay is the blocking pause between consecutive API calls.
	BatchDelay time.Duration
	// SkipPatterns lists regexps; matching strings are left untranslated.
	SkipPatterns []*regexp.Regexp
	// Cache is the optional translation memory.
	Cache *cache.Cache
	// OnProgress is called after each submitted batch.
	OnProgress func(done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 50
}

func (o *Options) skip(s string) bool {
	for _, re := range o.SkipPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// CompileSkipPatterns compiles skip regexps from configuration.
func CompileSkipPatterns(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("skip pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Core translation logic
// ---------------------------------------------------------------------------

// Source is the document behavior the format packages share
// (jsonfile, yamlfile, propfile, txtfile).
type Source interface {
	Keys() []string
	Get(key string) (string, bool)
	Set(key, value string) bool
}

// TranslateSource translates the eligible values of a parsed document
// in place and returns how many values changed.
func TranslateSource(ctx context.Context, doc Source, opts Options) (int, error) {
	keys := doc.Keys()
	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i], _ = doc.Get(k)
	}

	translated, err := Strings(ctx, texts, opts)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, k := range keys {
		if translated[i] != texts[i] {
			doc.Set(k, translated[i])
			changed++
		}
	}
	return changed, nil
}

// pending is one string scheduled for an API call.
type pending struct {
	idx      int
	source   string
	stripped string
	toks     []tokens.Token
}

// Strings translates texts and returns a slice of the same length.
// Blank strings, skip-matched strings and everything past the Limit are
// returned unchanged; cached strings are filled from the translation
// memory. The rest is submitted in ceil(N/BatchSize) sequential API
// calls with BatchDelay between them. Inline tokens are removed before
// submission and re-inserted verbatim afterwards.
func Strings(ctx context.Context, texts []string, opts Options) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)

	var todo []pending
	eligible := 0
	for i, s := range texts {
		if strings.TrimSpace(s) == "" || opts.skip(s) {
			continue
		}
		eligible++
		if opts.Limit > 0 && eligible > opts.Limit {
			break
		}

		if opts.Cache != nil {
			if hit, ok := opts.Cache.Get(opts.TargetLang, s); ok {
				out[i] = hit
				if opts.Verbose {
					opts.log("  cache hit: %s", truncate(s, 60))
				}
				continue
			}
		}

		stripped, toks := tokens.Extract(s)
		if stripped == "" {
			// Token-only string, nothing for the engine to do.
			continue
		}
		todo = append(todo, pending{idx: i, source: s, stripped: stripped, toks: toks})
	}

	if len(todo) == 0 {
		return out, nil
	}

	batches := splitPending(todo, opts.effectiveBatchSize())
	done := 0

	// One client for the whole run so connections are reused across batches.
	client := makeHTTPClient(opts.Provider.Proxy, opts.Provider.Timeout)

	for bi, batch := range batches {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.Verbose {
			opts.log("  batch %d/%d (%d strings)", bi+1, len(batches), len(batch))
		}

		req := make([]string, len(batch))
		for i, p := range batch {
			req[i] = p.stripped
		}

		resp, err := callAPI(ctx, client, opts.Provider, req, opts.SourceLang, opts.TargetLang)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", bi+1, len(batches), err)
		}
		if len(resp) != len(batch) {
			return nil, fmt.Errorf("batch %d/%d: got %d translations for %d strings", bi+1, len(batches), len(resp), len(batch))
		}

		for i, p := range batch {
			restored := tokens.Restore(resp[i], p.toks)
			out[p.idx] = restored
			if opts.Cache != nil {
				opts.Cache.Put(opts.TargetLang, p.source, restored)
			}
		}

		done += len(batch)
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(todo))
		}

		// Flat delay between batches to respect the API rate limit.
		if bi < len(batches)-1 && opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.BatchDelay):
			}
		}
	}

	return out, nil
}

// splitPending divides entries into batches of the given size.
func splitPending(items []pending, size int) [][]pending {
	if size <= 0 || size >= len(items) {
		return [][]pending{items}
	}
	var batches [][]pending
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// ---------------------------------------------------------------------------
// HTTP client
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy and HTTP_PROXY/HTTPS_PROXY env vars.
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// DeepL wire format
// ---------------------------------------------------------------------------

type translateRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

type translateResponse struct {
	Translations []struct {
		Text                   string `json:"text"`
		DetectedSourceLanguage string `json:"detected_source_language,omitempty"`
	} `json:"translations"`
	Message string `json:"message,omitempty"`
}

// callAPI submits one batch as a single POST /v2/translate call and
// returns the translated strings in request order.
func callAPI(ctx context.Context, client *http.Client, prov Provider, texts []string, sourceLang, targetLang string) ([]string, error) {
	body, err := json.Marshal(translateRequest{
		Text:       texts,
		SourceLang: langmeta.APICode(sourceLang),
		TargetLang: langmeta.APICode(targetLang),
	})
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	endpoint := strings.TrimRight(prov.BaseURL, "/") + "/v2/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+prov.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusForbidden:
		return nil, fmt.Errorf("API rejected the key (403): check the API key and whether it matches the %s endpoint", prov.Name)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("API rate limited (429): increase --delay or reduce --batch-size")
	case 456:
		return nil, fmt.Errorf("API character quota exceeded (456)")
	default:
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed translateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("invalid API response: %w", err)
	}

	out := make([]string, len(parsed.Translations))
	for i, t := range parsed.Translations {
		out[i] = t.Text
	}
	return out, nil
}

// truncate shortens s for log output without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
