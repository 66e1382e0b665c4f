// modlate — batch translator for game mod string files.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/modlate/modlate/cache"
	"github.com/modlate/modlate/config"
	"github.com/modlate/modlate/i18n"
	"github.com/modlate/modlate/jsonfile"
	"github.com/modlate/modlate/langmeta"
	"github.com/modlate/modlate/pofile"
	"github.com/modlate/modlate/propfile"
	"github.com/modlate/modlate/translate"
	"github.com/modlate/modlate/txtfile"
	"github.com/modlate/modlate/xmlfile"
	"github.com/modlate/modlate/yamlfile"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "modlate",
		Short: "Batch translator for game mod string files",
		Long: `modlate — batch translator for game mod string files.

Reads JSON, YAML, .properties, plain-text, gettext PO and XML files,
collects the string values under the configured target keys for the
structured formats (default: text, val), and sends
them to the DeepL API in fixed-size batches with a delay between calls.
Inline tokens like (:3), [note] or 「かお」 are removed before translation
and restored verbatim afterwards, and the output file keeps the exact
structure of the input.

Commands:
  status      Show project settings and per-file string statistics
  translate   Translate mod files (mods.json -> mods_jp.json by default)
  cache       Inspect or clear the translation memory
  version     Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newTranslateCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modlate version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// document is what every format package produces.
type document interface {
	translate.Source
	Stats() (total, nonEmpty int)
	Marshal() ([]byte, error)
	WriteFile(path string) error
}

// parseDocument loads a file with the handler its extension selects.
func parseDocument(path string, targetKeys []string) (document, error) {
	switch config.FormatFor(path) {
	case config.FormatJSON:
		return jsonfile.ParseFile(path, targetKeys)
	case config.FormatYAML:
		return yamlfile.ParseFile(path, targetKeys)
	case config.FormatProperties:
		return propfile.ParseFile(path)
	case config.FormatText:
		return txtfile.ParseFile(path)
	case config.FormatPO:
		return pofile.ParseFile(path)
	case config.FormatXML:
		return xmlfile.ParseFile(path)
	default:
		return nil, fmt.Errorf("no handler for %s", filepath.Ext(path))
	}
}

// ---------------------------------------------------------------------------
// status (read-only: settings + per-file statistics)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [paths...]",
		Short: "Show project settings and per-file string statistics",
		Long: `Show the resolved run settings (.modlate.yaml merged with defaults)
and the translatable-string counts of the given files or directories.
Does not modify any files and never calls the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args)
		},
	}

	return cmd
}

func runStatus(args []string) error {
	mf, err := config.LoadModlateFile(rootDir)
	if err != nil {
		return err
	}
	settings := config.Resolve(mf)

	fmt.Fprintf(os.Stderr, "\n%sSettings%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(os.Stderr, "  Root:        %s\n", absRoot)
	if mf != nil {
		fmt.Fprintf(os.Stderr, "  Config:      %s\n", config.ModlateFileName)
	} else {
		fmt.Fprintf(os.Stderr, "  Config:      built-in defaults\n")
	}

	src := langmeta.Resolve(settings.SourceLang)
	dst := langmeta.Resolve(settings.TargetLang)
	fmt.Fprintf(os.Stderr, "  Languages:   %s %s -> %s %s\n", src.Flag, src.Name, dst.Flag, dst.Name)
	fmt.Fprintf(os.Stderr, "  Target keys: %s\n", strings.Join(settings.Keys, ", "))
	fmt.Fprintf(os.Stderr, "  Batch size:  %d (delay %s)\n", settings.BatchSize, settings.BatchDelay)
	if settings.Limit > 0 {
		fmt.Fprintf(os.Stderr, "  Limit:       first %d strings\n", settings.Limit)
	}
	if len(settings.Skip) > 0 {
		fmt.Fprintf(os.Stderr, "  Skip:        %s\n", strings.Join(settings.Skip, ", "))
	}
	fmt.Fprintln(os.Stderr)

	if tm, err := cache.Load(rootDir); err == nil && tm.Len(settings.TargetLang) > 0 {
		fmt.Fprintf(os.Stderr, "  Cache:       %d entries for %s\n\n", tm.Len(settings.TargetLang), settings.TargetLang)
	}

	files, err := resolveInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logInfo(i18n.T("No files to translate"))
		return nil
	}

	fmt.Fprintf(os.Stderr, "%sFiles%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, f := range files {
		doc, err := parseDocument(f, settings.Keys)
		if err != nil {
			logWarning("%s: %v", f, err)
			continue
		}
		total, translatable := doc.Stats()
		fmt.Fprintf(os.Stderr, "  %-40s %4d strings (%d translatable)\n", f, total, translatable)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// resolveInputs expands CLI path arguments; when none are given the
// conventional default input is used if it exists.
func resolveInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		def := filepath.Join(rootDir, config.DefaultInput)
		if !fileExists(def) {
			return nil, nil
		}
		args = []string{def}
	}
	return config.ResolveTargets(args)
}

// ---------------------------------------------------------------------------
// cache (inspect or clear the translation memory)
// ---------------------------------------------------------------------------

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the translation memory",
		Long: `Show the on-disk translation memory (` + cache.FileName + `).
Cached translations are reused on later runs without calling the API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, err := cache.Load(rootDir)
			if err != nil {
				return err
			}
			langs := tm.Languages()
			if len(langs) == 0 {
				logInfo("Cache is empty (%s)", tm.Path())
				return nil
			}
			fmt.Fprintf(os.Stderr, "Cache: %s\n", tm.Path())
			for _, lang := range langs {
				m := langmeta.Resolve(lang)
				fmt.Fprintf(os.Stderr, "  %s %-8s %d entries\n", m.Flag, lang, tm.Len(lang))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, err := cache.Load(rootDir)
			if err != nil {
				return err
			}
			tm.Clear()
			if err := tm.Save(); err != nil {
				return err
			}
			logSuccess("Cache cleared")
			return nil
		},
	})

	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	sourceLang string
	targetLang string
	keys       []string
	batchSize  int
	limit      int
	delay      time.Duration

	provider string
	apiKey   string
	baseURL  string
	timeout  time.Duration
	proxy    string

	output  string
	inPlace bool
	backup  bool
	noCache bool
	skip    []string
	logFile string
	dryRun  bool
	verbose bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate [paths...]",
		Short: "Translate mod files",
		Long: `Translate the string values of mod files.

With no arguments, translates ` + config.DefaultInput + ` in the project root and
writes ` + config.DefaultOutput + `. Directories are walked recursively and require
--in-place. An API key is required: pass --api-key or set MODLATE_API_KEY
(DEEPL_API_KEY also works).

Examples:
  # Default run: mods.json -> mods_jp.json, English to Japanese
  modlate translate

  # Translate into German, custom keys, gentler pacing
  modlate translate --to de --keys text,val,desc --batch-size 20 --delay 2s

  # Whole directory, in place, originals backed up first
  modlate translate mods/ --in-place --backup

  # Trial run on the first 10 strings
  modlate translate --limit 10

  # Show what would be translated without calling the API
  modlate translate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, a)
		},
	}

	// Languages and selection
	cmd.Flags().StringVar(&a.sourceLang, "from", "", "Source language code (default en)")
	cmd.Flags().StringVar(&a.targetLang, "to", "", "Target language code (default ja)")
	cmd.Flags().StringSliceVar(&a.keys, "keys", nil, "Target keys for structured formats (default text,val)")
	cmd.Flags().IntVar(&a.limit, "limit", 0, "Translate only the first N eligible strings (0 = all)")
	cmd.Flags().StringSliceVar(&a.skip, "skip", nil, "Regexps; matching strings are left untranslated")

	// Pacing
	cmd.Flags().IntVar(&a.batchSize, "batch-size", 0, "Strings per API call (default 50)")
	cmd.Flags().DurationVar(&a.delay, "delay", 0, "Delay between API calls (default 1s)")

	// Provider
	cmd.Flags().StringVar(&a.provider, "provider", "", "Translation endpoint: deepl, deepl-pro, custom")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or MODLATE_API_KEY / DEEPL_API_KEY env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "API base URL (required for --provider custom)")
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	// Output
	cmd.Flags().StringVar(&a.output, "output", "", "Output path (single input file only)")
	cmd.Flags().BoolVar(&a.inPlace, "in-place", false, "Overwrite input files (required for directories)")
	cmd.Flags().BoolVar(&a.backup, "backup", false, "Copy originals to a timestamped backup dir before writing")
	cmd.Flags().BoolVar(&a.noCache, "no-cache", false, "Bypass the translation memory")
	cmd.Flags().StringVar(&a.logFile, "log-file", "", "CSV run log path (default modlate_log.csv in the root)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Report what would be translated without calling the API")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"deepl\tDeepL free tier (api-free.deepl.com)",
			"deepl-pro\tDeepL pro tier (api.deepl.com)",
			"custom\tDeepL-compatible endpoint (--base-url required)",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveSettings merges defaults, .modlate.yaml and the flags the user
// actually set.
func resolveSettings(cmd *cobra.Command, a translateArgs) (config.Settings, error) {
	mf, err := config.LoadModlateFile(rootDir)
	if err != nil {
		return config.Settings{}, err
	}
	s := config.Resolve(mf)

	flags := cmd.Flags()
	if flags.Changed("from") {
		s.SourceLang = a.sourceLang
	}
	if flags.Changed("to") {
		s.TargetLang = a.targetLang
	}
	if flags.Changed("keys") {
		s.Keys = a.keys
	}
	if flags.Changed("batch-size") {
		if a.batchSize <= 0 {
			return config.Settings{}, fmt.Errorf("--batch-size must be positive")
		}
		s.BatchSize = a.batchSize
	}
	if flags.Changed("limit") {
		s.Limit = a.limit
	}
	if flags.Changed("delay") {
		s.BatchDelay = a.delay
	}
	if flags.Changed("skip") {
		s.Skip = a.skip
	}
	if flags.Changed("provider") {
		s.Provider = a.provider
	}
	if flags.Changed("base-url") {
		s.BaseURL = a.baseURL
	}
	if a.backup {
		s.Backup = true
	}
	return s, nil
}

// resolveAPIKey returns the key from the flag or the environment.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if key := os.Getenv("MODLATE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("DEEPL_API_KEY")
}

func runTranslate(cmd *cobra.Command, args []string, a translateArgs) error {
	settings, err := resolveSettings(cmd, a)
	if err != nil {
		return err
	}

	files, err := resolveInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logInfo(i18n.T("No files to translate"))
		return nil
	}

	if len(files) > 1 && !a.inPlace {
		return fmt.Errorf("%d input files: use --in-place, or pass a single file (optionally with --output)", len(files))
	}
	if a.output != "" && (a.inPlace || len(files) > 1) {
		return fmt.Errorf("--output only applies to a single input file without --in-place")
	}

	skipPatterns, err := translate.CompileSkipPatterns(settings.Skip)
	if err != nil {
		return err
	}

	var prov translate.Provider
	if !a.dryRun {
		key := resolveAPIKey(a.apiKey)
		prov, err = translate.ResolveProvider(settings.Provider, settings.BaseURL, key, a.proxy, a.timeout)
		if err != nil {
			return err
		}
	}

	var tm *cache.Cache
	if !a.noCache {
		tm, err = cache.Load(rootDir)
		if err != nil {
			logWarning("Translation memory unavailable: %v", err)
		}
	}

	src := langmeta.Resolve(settings.SourceLang)
	dst := langmeta.Resolve(settings.TargetLang)
	logInfo("Translating %s %s -> %s %s (batch %d, delay %s)",
		src.Flag, src.Name, dst.Flag, dst.Name, settings.BatchSize, settings.BatchDelay)

	// Graceful Ctrl-C: finish nothing, write nothing mid-file.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, stopping after the current request...")
		cancel()
	}()

	backupDir := ""
	if settings.Backup && a.inPlace && !a.dryRun {
		backupDir = filepath.Join(rootDir, ".modlate_backup_"+time.Now().Format("20060102_150405"))
	}

	runLog := a.logFile
	if runLog == "" {
		runLog = filepath.Join(rootDir, "modlate_log.csv")
	}

	opts := translate.Options{
		Provider:     prov,
		SourceLang:   settings.SourceLang,
		TargetLang:   settings.TargetLang,
		BatchSize:    settings.BatchSize,
		Limit:        settings.Limit,
		BatchDelay:   settings.BatchDelay,
		SkipPatterns: skipPatterns,
		Cache:        tm,
		Verbose:      a.verbose,
		OnLog:        logInfo,
		OnProgress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r  %d/%d strings", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		},
	}

	failed := 0
	for _, f := range files {
		start := time.Now()
		changed, total, err := translateFile(ctx, f, a, settings, opts, backupDir)
		status := "OK"
		errMsg := ""
		if err != nil {
			status = "ERROR"
			errMsg = err.Error()
			failed++
			logError("%s: %v", f, err)
		}
		if !a.dryRun {
			appendRunLog(runLog, f, total, changed, status, errMsg, time.Since(start))
		}
		if ctx.Err() != nil {
			// Interrupted: stop the whole run.
			break
		}
	}

	if tm != nil {
		if err := tm.Save(); err != nil {
			logWarning("Saving translation memory: %v", err)
		}
	}

	if a.dryRun {
		logInfo(i18n.T("Dry run, no files were written"))
		return nil
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	logSuccess(i18n.T("Translation complete"))
	return nil
}

// translateFile processes one file end to end and returns the number of
// changed strings plus the total number of collected strings.
func translateFile(ctx context.Context, path string, a translateArgs, settings config.Settings, opts translate.Options, backupDir string) (changed, total int, err error) {
	doc, err := parseDocument(path, settings.Keys)
	if err != nil {
		return 0, 0, err
	}

	total, nonEmpty := doc.Stats()
	if a.verbose || a.dryRun {
		logInfo("%s: "+i18n.N("Found %d translatable string", "Found %d translatable strings", nonEmpty), path, nonEmpty)
	}
	if a.dryRun {
		return 0, total, nil
	}

	changed, err = translate.TranslateSource(ctx, doc, opts)
	if err != nil {
		return 0, total, err
	}

	outPath := path
	if !a.inPlace {
		outPath = a.output
		if outPath == "" {
			outPath = config.OutputPath(path, settings.TargetLang)
		}
	}

	if backupDir != "" && outPath == path {
		if err := backupFile(path, backupDir); err != nil {
			return changed, total, fmt.Errorf("backup: %w", err)
		}
	}

	if err := doc.WriteFile(outPath); err != nil {
		return changed, total, err
	}
	if a.verbose {
		logSuccess("%s -> %s (%d translated)", path, outPath, changed)
	}
	return changed, total, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// backupFile copies src into backupDir, keeping only the base name.
func backupFile(src, backupDir string) error {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(backupDir, filepath.Base(src)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// appendRunLog records one processed file in the CSV run log.
// Log failures are warnings, never run failures.
func appendRunLog(path, file string, total, changed int, status, errMsg string, elapsed time.Duration) {
	newFile := !fileExists(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logWarning("Run log: %v", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		_ = w.Write([]string{"timestamp", "file", "strings", "translated", "status", "error", "duration"})
	}
	_ = w.Write([]string{
		time.Now().Format(time.RFC3339),
		file,
		fmt.Sprint(total),
		fmt.Sprint(changed),
		status,
		errMsg,
		elapsed.Round(time.Millisecond).String(),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		logWarning("Run log: %v", err)
	}
}
