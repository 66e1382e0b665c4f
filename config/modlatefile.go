// .modlate.yaml configuration file support.
//
// When a .modlate.yaml file exists in the project root, its values
// override the built-in defaults; command-line flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ModlateFileName is the config file name.
const ModlateFileName = ".modlate.yaml"

// ModlateFile is the top-level .modlate.yaml structure.
type ModlateFile struct {
	// SourceLang is the source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// TargetLang is the target language code (default "ja").
	TargetLang string `yaml:"target_lang,omitempty"`
	// Keys are the target keys for structured formats.
	Keys []string `yaml:"keys,omitempty"`
	// BatchSize is how many strings are submitted per API call.
	BatchSize int `yaml:"batch_size,omitempty"`
	// Limit restricts a run to the first N eligible strings (0 = all).
	Limit int `yaml:"limit,omitempty"`
	// BatchDelay is the pause between API calls (e.g. "1s", "600ms").
	BatchDelay string `yaml:"batch_delay,omitempty"`
	// Skip lists regular expressions; matching strings are never sent
	// for translation.
	Skip []string `yaml:"skip,omitempty"`
	// Provider selects the translation endpoint: deepl, deepl-pro, custom.
	Provider string `yaml:"provider,omitempty"`
	// BaseURL is the endpoint base URL for the custom provider.
	BaseURL string `yaml:"base_url,omitempty"`
	// Backup enables copying originals aside before in-place writes.
	Backup bool `yaml:"backup,omitempty"`
}

// LoadModlateFile loads .modlate.yaml from the given directory.
// Returns nil if no config file exists.
func LoadModlateFile(rootDir string) (*ModlateFile, error) {
	path := filepath.Join(rootDir, ModlateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var mf ModlateFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if mf.BatchSize < 0 {
		return nil, fmt.Errorf("%s: batch_size must not be negative", path)
	}
	if mf.Limit < 0 {
		return nil, fmt.Errorf("%s: limit must not be negative", path)
	}
	if mf.BatchDelay != "" {
		if _, err := time.ParseDuration(mf.BatchDelay); err != nil {
			return nil, fmt.Errorf("%s: batch_delay: %w", path, err)
		}
	}
	return &mf, nil
}

// Settings is the fully resolved run configuration.
type Settings struct {
	SourceLang string
	TargetLang string
	Keys       []string
	BatchSize  int
	Limit      int
	BatchDelay time.Duration
	Skip       []string
	Provider   string
	BaseURL    string
	Backup     bool
}

// Resolve merges built-in defaults with an optional .modlate.yaml.
// mf may be nil.
func Resolve(mf *ModlateFile) Settings {
	s := Settings{
		SourceLang: DefaultSourceLang,
		TargetLang: DefaultTargetLang,
		Keys:       append([]string(nil), DefaultTargetKeys...),
		BatchSize:  DefaultBatchSize,
		Provider:   "deepl",
	}
	s.BatchDelay, _ = time.ParseDuration(DefaultBatchDelay)

	if mf == nil {
		return s
	}
	if mf.SourceLang != "" {
		s.SourceLang = mf.SourceLang
	}
	if mf.TargetLang != "" {
		s.TargetLang = mf.TargetLang
	}
	if len(mf.Keys) > 0 {
		s.Keys = append([]string(nil), mf.Keys...)
	}
	if mf.BatchSize > 0 {
		s.BatchSize = mf.BatchSize
	}
	if mf.Limit > 0 {
		s.Limit = mf.Limit
	}
	if mf.BatchDelay != "" {
		// Validated in LoadModlateFile.
		s.BatchDelay, _ = time.ParseDuration(mf.BatchDelay)
	}
	if len(mf.Skip) > 0 {
		s.Skip = append([]string(nil), mf.Skip...)
	}
	if mf.Provider != "" {
		s.Provider = mf.Provider
	}
	if mf.BaseURL != "" {
		s.BaseURL = mf.BaseURL
	}
	s.Backup = mf.Backup
	return s
}
