// Package config holds run configuration for modlate: built-in defaults,
// the optional .modlate.yaml project file, and discovery of translatable
// mod files under a directory.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modlate/modlate/langmeta"
)

// Built-in defaults. Flags and .modlate.yaml override these.
const (
	// DefaultInput is the file translated when no paths are given.
	DefaultInput = "mods.json"
	// DefaultOutput is the output written for the default input with the
	// default target language.
	DefaultOutput = "mods_jp.json"

	DefaultSourceLang = "en"
	DefaultTargetLang = "ja"
	DefaultBatchSize  = 50
	DefaultBatchDelay = "1s"
)

// DefaultTargetKeys are the object keys whose string values are eligible
// for translation in structured formats.
var DefaultTargetKeys = []string{"text", "val"}

// Format identifies a supported file format.
type Format string

const (
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatProperties Format = "properties"
	FormatText       Format = "text"
	FormatPO         Format = "po"
	FormatXML        Format = "xml"
)

// formatByExt maps file extensions to formats.
var formatByExt = map[string]Format{
	".json":       FormatJSON,
	".yaml":       FormatYAML,
	".yml":        FormatYAML,
	".properties": FormatProperties,
	".txt":        FormatText,
	".po":         FormatPO,
	".xml":        FormatXML,
}

// FormatFor returns the format for a file path, or "" if the extension
// has no handler.
func FormatFor(path string) Format {
	return formatByExt[strings.ToLower(filepath.Ext(path))]
}

// ---------------------------------------------------------------------------
// File discovery
// ---------------------------------------------------------------------------

// ResolveTargets expands the given paths into the list of translatable
// files. Directories are walked recursively; files with no handler are
// skipped. Files are returned in deterministic (sorted) order per
// argument. Missing paths are an error.
func ResolveTargets(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Skip hidden directories (VCS, caches).
				if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if FormatFor(path) != "" {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// OutputPath derives the output file name for an input file and target
// language: mods.json with target ja maps to the conventional
// mods_jp.json; any other input becomes <base>_<suffix><ext>.
func OutputPath(input, targetLang string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + "_" + langmeta.FileSuffix(targetLang) + ext
}
