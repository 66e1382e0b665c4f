// Package cache implements .modlate.cache.yaml — a translation memory
// that stores previously translated strings per target language. Repeat
// runs over the same mod files reuse cached translations instead of
// re-submitting identical source strings to the API, saving characters
// and time.
//
// The cache file lives in the project root next to .modlate.yaml.
// Entries are keyed by the MD5 checksum of the source string so that the
// YAML stays readable regardless of how long the source text is.
package cache

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the default cache file name.
const FileName = ".modlate.cache.yaml"

// Version is the cache file format version.
const Version = 1

// Cache represents the translation memory file.
type Cache struct {
	Version int `yaml:"version"`
	// Entries maps target language → MD5(source) → translated text.
	Entries map[string]map[string]string `yaml:"entries"`

	mu    sync.Mutex `yaml:"-"`
	path  string     `yaml:"-"`
	dirty bool       `yaml:"-"`
}

// Hash computes the MD5 hex digest of a source string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Load reads the cache from the given directory.
// Returns an empty cache if the file doesn't exist.
func Load(dir string) (*Cache, error) {
	path := filepath.Join(dir, FileName)
	c := &Cache{
		Version: Version,
		Entries: make(map[string]map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.path = path

	if c.Entries == nil {
		c.Entries = make(map[string]map[string]string)
	}
	return c, nil
}

// Save writes the cache to disk if anything changed since Load.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}
	if c.path == "" {
		return fmt.Errorf("cache file path not set")
	}

	empty := true
	for _, byHash := range c.Entries {
		if len(byHash) > 0 {
			empty = false
			break
		}
	}
	if empty {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", c.path, err)
		}
		c.dirty = false
		return nil
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	c.dirty = false
	return nil
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Get looks up a cached translation for the source string.
func (c *Cache) Get(lang, source string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byLang, ok := c.Entries[lang]
	if !ok {
		return "", false
	}
	t, ok := byLang[Hash(source)]
	return t, ok
}

// Put records a translation for the source string.
func (c *Cache) Put(lang, source, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Entries[lang] == nil {
		c.Entries[lang] = make(map[string]string)
	}
	c.Entries[lang][Hash(source)] = translated
	c.dirty = true
}

// Len returns the number of cached translations for a language.
func (c *Cache) Len(lang string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Entries[lang])
}

// Languages returns the target languages with cached entries, sorted.
func (c *Cache) Languages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var langs []string
	for lang, byHash := range c.Entries {
		if len(byHash) > 0 {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Clear drops all entries. The file is removed on the next Save.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries = make(map[string]map[string]string)
	c.dirty = true
}
