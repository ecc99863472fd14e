// docloc — placeholder localization toolchain for markdown documentation sites.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/staticdocs/docloc/changelog"
	"github.com/staticdocs/docloc/config"
	"github.com/staticdocs/docloc/i18n"
	"github.com/staticdocs/docloc/llmstxt"
	"github.com/staticdocs/docloc/lockfile"
	"github.com/staticdocs/docloc/placeholder"
	"github.com/staticdocs/docloc/pofile"
	"github.com/staticdocs/docloc/table"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
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
		Use:   "docloc",
		Short: "Placeholder localization toolchain for markdown documentation sites",
		Long: `docloc — placeholder localization toolchain for markdown documentation sites.

Source documents carry {{placeholder}} markers. Per-document, per-locale JSON
tables map each marker to its localized text; docloc extracts markers into
tables, renders localized document copies with fallback to the default
locale, parses the changelog into a public releases feed, and post-processes
the llms.txt AI-discovery indexes a static-site build leaves behind.

Commands:
  status       Show site configuration and translation statistics
  extract      Extract placeholders into translation tables
  replace      Render localized documents with default-locale fallback
  releases     Generate the recent-releases JSON feed from the changelog
  llms         Generate llms.txt / llms-full.txt AI-discovery indexes
  postprocess  Substitute leftover placeholders in built indexes
  watch        Re-extract and re-render whenever source documents change
  export       Export translation tables to a gettext PO catalog
  import       Fold translations from a PO catalog back into tables`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Site root directory")

	root.AddCommand(
		newStatusCmd(),
		newExtractCmd(),
		newReplaceCmd(),
		newReleasesCmd(),
		newLlmsCmd(),
		newPostprocessCmd(),
		newWatchCmd(),
		newExportCmd(),
		newImportCmd(),
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
			fmt.Printf("docloc version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: site info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show site configuration and translation statistics",
		Long: `Show the resolved site configuration and translation statistics.

Displays the site root, source and translation directories, configured
locales, per-locale table coverage and key counts, and documents whose
source changed since the last extraction. Does not modify any files.`,
		Run: func(cmd *cobra.Command, args []string) {
			runStatus()
		},
	}

	return cmd
}

func runStatus() {
	site := mustSite()

	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Site"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fmt.Fprintf(os.Stderr, "  Name:          %s\n", site.SiteName)
	fmt.Fprintf(os.Stderr, "  Root:          %s\n", site.Root)
	fmt.Fprintf(os.Stderr, "  Default:       %s\n", site.DefaultLocale)
	fmt.Fprintf(os.Stderr, "  Locales:       %s\n", strings.Join(site.Locales, ", "))

	if docs, err := site.Documents(); err != nil {
		fmt.Fprintf(os.Stderr, "  Docs:          %s (missing)\n", site.DocsDir)
	} else {
		fmt.Fprintf(os.Stderr, "  Docs:          %s (%d documents)\n", site.DocsDir, len(docs))
	}
	fmt.Fprintf(os.Stderr, "  Translations:  %s\n", site.TranslationsDir)
	fmt.Fprintf(os.Stderr, "  Build:         %s\n", site.BuildDir)
	if fileExists(site.ChangelogPath()) {
		fmt.Fprintf(os.Stderr, "  Changelog:     %s\n", site.Changelog)
	} else {
		fmt.Fprintf(os.Stderr, "  Changelog:     %s (missing)\n", site.Changelog)
	}
	if lock, err := lockfile.Load(site.LockPath()); err == nil {
		fmt.Fprintf(os.Stderr, "  Lock:          %s\n", lock.Summary())
	}
	fmt.Fprintln(os.Stderr)

	showStatsTable(site)
	showStaleDocuments(site)
	printSuggestedCommands()
}

func showStatsTable(site *config.Site) {
	docs, err := sourceDocs(site)
	if err != nil || len(docs) == 0 {
		logInfo("No source documents found. Nothing to report.")
		return
	}

	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-10s %-8s %-12s %-26s %s\n", "Locale", "Tables", "Keys", "Progress", "Name")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 78))

	for _, loc := range site.Locales {
		covered := 0
		total, translated := 0, 0

		for _, doc := range docs {
			path := site.TablePath(loc, doc.Name)
			if !fileExists(path) {
				continue
			}
			tbl, err := table.ParseFile(path)
			if err != nil {
				logWarning("%s: %v", loc, err)
				continue
			}
			covered++
			t, tr, _ := tbl.Stats()
			total += t
			translated += tr
		}

		percent := 0
		if total > 0 {
			percent = translated * 100 / total
		}

		name := localeName(loc)
		if flag := langFlag(loc); flag != "" {
			name = flag + " " + name
		}

		fmt.Fprintf(os.Stderr, "%-10s %-8s %-12s %s  %s\n",
			loc,
			fmt.Sprintf("%d/%d", covered, len(docs)),
			fmt.Sprintf("%d/%d", translated, total),
			progressBar(percent, 20),
			name)
	}

	fmt.Fprintln(os.Stderr, strings.Repeat("─", 78))
	fmt.Fprintln(os.Stderr)
}

func showStaleDocuments(site *config.Site) {
	lock, err := lockfile.Load(site.LockPath())
	if err != nil {
		logWarning("Lock file unreadable, staleness unknown: %v", err)
		return
	}

	docs, err := sourceDocs(site)
	if err != nil {
		return
	}

	var stale []string
	for _, loc := range site.Locales {
		var names []string
		for _, doc := range docs {
			// Only documents extracted before can go stale.
			if !fileExists(site.TablePath(loc, doc.Name)) {
				continue
			}
			data, err := os.ReadFile(doc.Path)
			if err != nil {
				continue
			}
			if lock.IsChanged(loc, doc.Name, string(data)) {
				names = append(names, doc.Name)
			}
		}
		if len(names) > 0 {
			stale = append(stale, fmt.Sprintf("%s: %s", loc, strings.Join(names, ", ")))
		}
	}

	if len(stale) == 0 {
		return
	}

	logInfo(i18n.T("Stale documents (source changed since last extract):"))
	for _, line := range stale {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
	fmt.Fprintln(os.Stderr)
}

func printSuggestedCommands() {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Suggested commands"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr, "  docloc extract <locale>    update translation tables")
	fmt.Fprintln(os.Stderr, "  docloc replace <locale>    render localized documents")
	fmt.Fprintln(os.Stderr, "  docloc releases            regenerate the releases feed")
	fmt.Fprintln(os.Stderr, "  docloc llms                generate AI-discovery indexes")
	fmt.Fprintln(os.Stderr, "  docloc postprocess         substitute placeholders in built indexes")
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// extract (scan placeholders, create/update translation tables)
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <locale>",
		Short: "Extract placeholders into translation tables",
		Long: `Scan source documents for {{placeholder}} markers and create or update
the per-document translation tables for a locale.

Existing translations are preserved; newly discovered placeholders are added
with empty values. For the default locale each placeholder maps to its own
text. The changelog, when present, is extracted through the same tables.

This command is idempotent — safe to run multiple times.`,
		Args: requireLocale,
		Run: func(cmd *cobra.Command, args []string) {
			runExtract(args[0])
		},
	}

	return cmd
}

func runExtract(locale string) {
	site := mustSite()
	if err := config.ValidateLocale(locale); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	logInfo("Extracting placeholders for %s...", locale)

	lock := loadLock(site)
	stats, err := doExtract(site, locale, lock, false)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	saveLock(lock)

	logInfo("Summary: %d created, %d updated, %d up to date (+%d new keys)",
		stats.Created, stats.Updated, stats.Unchanged, stats.NewKeys)
	logSuccess(i18n.T("Extraction complete!"))
}

// extractStats counts table outcomes of one extraction pass.
type extractStats struct {
	Created   int
	Updated   int
	Unchanged int
	NewKeys   int
}

// doExtract runs extraction for one locale. With onlyChanged set, documents
// whose lock checksum still matches and whose table already exists are
// skipped (watch mode).
func doExtract(site *config.Site, locale string, lock *lockfile.LockFile, onlyChanged bool) (extractStats, error) {
	var stats extractStats

	docs, err := sourceDocs(site)
	if err != nil {
		return stats, err
	}

	identity := locale == site.DefaultLocale

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)

		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", doc.Path, err)
		}
		content := string(data)

		tablePath := site.TablePath(locale, doc.Name)
		existed := fileExists(tablePath)
		if onlyChanged && existed && !lock.IsChanged(locale, doc.Name, content) {
			continue
		}

		tbl := table.New()
		if existed {
			if tbl, err = table.ParseFile(tablePath); err != nil {
				return stats, err
			}
		}

		added := tbl.Sync(placeholder.Scan(content), identity)
		if err := tbl.WriteFile(tablePath); err != nil {
			return stats, err
		}
		lock.Update(locale, doc.Name, content)

		total, _, _ := tbl.Stats()
		switch {
		case !existed:
			logSuccess("Created: %s (%d keys)", relPath(site, tablePath), total)
			stats.Created++
		case added > 0:
			logSuccess("Updated: %s (+%d new keys)", relPath(site, tablePath), added)
			stats.Updated++
		default:
			logInfo("%s: up to date (%d keys)", doc.Name, total)
			stats.Unchanged++
		}
		stats.NewKeys += added
	}

	lock.Clean(locale, names)
	return stats, nil
}

// ---------------------------------------------------------------------------
// replace (render localized document copies)
// ---------------------------------------------------------------------------

func newReplaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <locale>",
		Short: "Render localized documents with default-locale fallback",
		Long: `Copy every source document into the locale's rendered directory and
substitute each {{placeholder}} with its translation.

Placeholders the locale leaves untranslated fall back to the default
locale's text, per placeholder. A document without a translation table is
copied as-is with a notice. Both the compact {{text}} form and the spaced
{ { text } } form a formatter may introduce are replaced.`,
		Args: requireLocale,
		Run: func(cmd *cobra.Command, args []string) {
			runReplace(args[0])
		},
	}

	return cmd
}

func runReplace(locale string) {
	site := mustSite()
	if err := config.ValidateLocale(locale); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	logInfo("Rendering documents for %s...", locale)

	stats, err := doReplace(site, locale)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	logInfo("Summary: %d rendered, %d copied without tables", stats.Rendered, stats.Missing)
	logSuccess(i18n.T("Rendering complete!"))
}

// replaceStats counts document outcomes of one render pass.
type replaceStats struct {
	Rendered int
	Missing  int
}

// doReplace renders every source document for one locale.
func doReplace(site *config.Site, locale string) (replaceStats, error) {
	var stats replaceStats

	docs, err := sourceDocs(site)
	if err != nil {
		return stats, err
	}

	outDir := site.RenderedDir(locale)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return stats, fmt.Errorf("creating %s: %w", outDir, err)
	}

	for _, doc := range docs {
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", doc.Path, err)
		}
		content := string(data)

		// The changelog renders next to the tables; documents render into
		// the locale's docs directory.
		outPath := filepath.Join(outDir, doc.Name)
		if doc.Changelog {
			outPath = site.LocalizedChangelog(locale)
		}

		tablePath := site.TablePath(locale, doc.Name)
		if !fileExists(tablePath) {
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return stats, fmt.Errorf("writing %s: %w", outPath, err)
			}
			logWarning("%s: no translation table for %s, copied with raw placeholders", doc.Name, locale)
			stats.Missing++
			continue
		}

		tbl, err := table.ParseFile(tablePath)
		if err != nil {
			return stats, err
		}

		var fallback map[string]string
		if locale != site.DefaultLocale {
			fbPath := site.TablePath(site.DefaultLocale, doc.Name)
			if fileExists(fbPath) {
				fb, err := table.ParseFile(fbPath)
				if err != nil {
					return stats, err
				}
				fallback = fb.Values
			}
		}

		rendered := placeholder.ReplaceWithFallback(content, tbl.Values, fallback)
		if err := os.WriteFile(outPath, []byte(rendered), 0644); err != nil {
			return stats, fmt.Errorf("writing %s: %w", outPath, err)
		}

		if placeholder.Contains(rendered) {
			logWarning("Rendered: %s (unresolved placeholders remain)", relPath(site, outPath))
		} else {
			logSuccess("Rendered: %s", relPath(site, outPath))
		}
		stats.Rendered++
	}

	return stats, nil
}

// ---------------------------------------------------------------------------
// releases (parse the changelog into the public feed)
// ---------------------------------------------------------------------------

func newReleasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releases",
		Short: "Generate the recent-releases JSON feed from the changelog",
		Long: `Parse the changelog into the public recent-releases feed.

Reads the default-locale changelog, extracts version, date, compare URL, and
the Features / Bug Fixes / Security lists per release, and writes the feed
JSON. Locales with a rendered changelog get their own feed, with section
headings matched against the locale's changelog translation table. Fails
only when the primary changelog yields zero releases.`,
		Run: func(cmd *cobra.Command, args []string) {
			runReleases()
		},
	}

	return cmd
}

func runReleases() {
	site := mustSite()

	path := site.ChangelogPath()
	data, err := os.ReadFile(path)
	if err != nil {
		logError("Cannot read changelog %s: %v", path, err)
		os.Exit(1)
	}

	releases := changelog.Parse(string(data), changelog.DefaultLabels(), changelog.MaxParsed)
	if len(releases) == 0 {
		logError("No releases found in %s", path)
		os.Exit(1)
	}
	logInfo(i18n.N("Parsed %d release", "Parsed %d releases", len(releases)), len(releases))

	feed, err := changelog.BuildFeed(releases, time.Now())
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	out := site.ReleasesPath(site.DefaultLocale)
	if err := feed.WriteFile(out); err != nil {
		logError("Writing %s: %v", out, err)
		os.Exit(1)
	}
	logSuccess("Wrote %s (latest %s, %d recent)", relPath(site, out), feed.Latest.Version, len(feed.Recent))

	for _, loc := range site.SecondaryLocales() {
		locPath := site.LocalizedChangelog(loc)
		if !fileExists(locPath) {
			logInfo("No localized changelog for %s, skipping", loc)
			continue
		}

		labels := changelog.DefaultLabels()
		tblPath := site.TablePath(loc, filepath.Base(site.Changelog))
		if fileExists(tblPath) {
			tbl, err := table.ParseFile(tblPath)
			if err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			labels = changelog.LocalizedLabels(tbl.Values)
		}

		locData, err := os.ReadFile(locPath)
		if err != nil {
			logWarning("Reading %s: %v", locPath, err)
			continue
		}

		locReleases := changelog.Parse(string(locData), labels, changelog.MaxParsed)
		if len(locReleases) == 0 {
			logWarning("No releases parsed from %s, skipping", locPath)
			continue
		}

		locFeed, err := changelog.BuildFeed(locReleases, time.Now())
		if err != nil {
			logWarning("%s: %v", loc, err)
			continue
		}

		locOut := site.ReleasesPath(loc)
		if err := locFeed.WriteFile(locOut); err != nil {
			logError("Writing %s: %v", locOut, err)
			os.Exit(1)
		}
		logSuccess("Wrote %s (latest %s, %d recent)", relPath(site, locOut), locFeed.Latest.Version, len(locFeed.Recent))
	}
}

// ---------------------------------------------------------------------------
// llms (generate the AI-discovery indexes)
// ---------------------------------------------------------------------------

func newLlmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llms",
		Short: "Generate llms.txt / llms-full.txt AI-discovery indexes",
		Long: `Generate the llms.txt and llms-full.txt indexes for each locale.

Every rendered document contributes one entry: its first level-one heading
becomes the title and its first paragraph the description. The default
locale falls back to the raw source documents when no rendered copies
exist; leftover placeholders are the postprocess command's job.`,
		Run: func(cmd *cobra.Command, args []string) {
			runLlms()
		},
	}

	return cmd
}

func runLlms() {
	site := mustSite()

	for _, loc := range site.Locales {
		docsDir := site.RenderedDir(loc)
		if !dirExists(docsDir) {
			if loc != site.DefaultLocale {
				logWarning("No rendered documents for %s, skipping", loc)
				continue
			}
			logInfo("No rendered documents for %s, indexing source documents", loc)
			docsDir = site.DocsPath()
			if !dirExists(docsDir) {
				logWarning("Docs directory %s missing, skipping", docsDir)
				continue
			}
		}

		entries, err := os.ReadDir(docsDir)
		if err != nil {
			logWarning("Reading %s: %v", docsDir, err)
			continue
		}

		var pages []llmstxt.Page
		for _, entry := range entries {
			if entry.IsDir() || !config.IsMarkdown(entry.Name()) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(docsDir, entry.Name()))
			if err != nil {
				logWarning("Reading %s: %v", entry.Name(), err)
				continue
			}
			pages = append(pages, llmstxt.ExtractPage(entry.Name(), data))
		}

		if len(pages) == 0 {
			logWarning("No documents found in %s, skipping %s", docsDir, loc)
			continue
		}

		outDir := site.BuildPath(loc)
		if err := llmstxt.Generate(outDir, site.SiteName, pages); err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		logSuccess("Generated %s and %s for %s (%d pages)", llmstxt.IndexFile, llmstxt.FullFile, loc, len(pages))
	}
}

// ---------------------------------------------------------------------------
// postprocess (substitute placeholders in built indexes)
// ---------------------------------------------------------------------------

func newPostprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postprocess",
		Short: "Substitute leftover placeholders in built indexes",
		Long: `Replace placeholders remaining in the built llms.txt and llms-full.txt.

All translation tables of a locale merge into one flat map (sorted file
order, last value wins on collision). Secondary locales overlay their
entries on the default locale's map, so untranslated keys fall back
automatically. Missing files and build directories are skipped.`,
		Run: func(cmd *cobra.Command, args []string) {
			runPostprocess()
		},
	}

	return cmd
}

func runPostprocess() {
	site := mustSite()

	defaultMerged := map[string]string{}
	if dir := site.TablesDir(site.DefaultLocale); dirExists(dir) {
		var collisions []table.Collision
		var err error
		defaultMerged, collisions, err = table.MergeDir(dir)
		if err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		warnCollisions(collisions)
	} else {
		logWarning("No translation tables for %s", site.DefaultLocale)
	}

	processBuildDir(site, site.BuildPath(site.DefaultLocale), defaultMerged)

	for _, loc := range site.SecondaryLocales() {
		buildDir := site.BuildPath(loc)
		if !dirExists(buildDir) {
			logWarning("Build directory %s missing, skipping %s", buildDir, loc)
			continue
		}

		merged := defaultMerged
		if dir := site.TablesDir(loc); dirExists(dir) {
			locMerged, collisions, err := table.MergeDir(dir)
			if err != nil {
				logError("%v", err)
				os.Exit(1)
			}
			warnCollisions(collisions)
			merged = table.Overlay(defaultMerged, locMerged)
		}

		processBuildDir(site, buildDir, merged)
	}
}

func processBuildDir(site *config.Site, dir string, merged map[string]string) {
	for _, name := range []string{llmstxt.IndexFile, llmstxt.FullFile} {
		path := filepath.Join(dir, name)
		if !fileExists(path) {
			logWarning("%s not found, skipping", relPath(site, path))
			continue
		}

		changed, err := llmstxt.Postprocess(path, merged)
		if err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		if changed {
			logSuccess("Replaced placeholders in %s", relPath(site, path))
		} else {
			logInfo("%s: nothing to replace", relPath(site, path))
		}
	}
}

func warnCollisions(collisions []table.Collision) {
	for _, c := range collisions {
		logWarning("Key %q redefined by %s (was %q, now %q)", c.Key, c.Path, c.Previous, c.Value)
	}
}

// ---------------------------------------------------------------------------
// watch (re-extract and re-render on changes)
// ---------------------------------------------------------------------------

// watchDebounce coalesces bursts of filesystem events into one cycle.
const watchDebounce = 300 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-extract and re-render whenever source documents change",
		Long: `Watch the source documents and re-run extraction and rendering for
every configured locale when a markdown file changes.

Events are debounced so editor save bursts trigger one cycle. The first
cycle runs immediately; documents whose content is unchanged since the
last extraction are skipped in later cycles. Runs until interrupted.`,
		Run: func(cmd *cobra.Command, args []string) {
			runWatch()
		},
	}

	return cmd
}

func runWatch() {
	site := mustSite()
	lock := loadLock(site)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logError("Starting watcher: %v", err)
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Add(site.DocsPath()); err != nil {
		logError("Watching %s: %v", site.DocsPath(), err)
		os.Exit(1)
	}
	// Root-level markdown (the changelog) feeds the same pipeline.
	if err := watcher.Add(site.Root); err != nil {
		logWarning("Watching %s: %v", site.Root, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logWarning(i18n.T("Interrupted, stopping watch..."))
		cancel()
	}()

	cycle := func(onlyChanged bool) {
		start := time.Now()
		for _, loc := range site.Locales {
			if _, err := doExtract(site, loc, lock, onlyChanged); err != nil {
				logWarning("Extract %s: %v", loc, err)
			}
		}
		saveLock(lock)
		for _, loc := range site.Locales {
			if _, err := doReplace(site, loc); err != nil {
				logWarning("Render %s: %v", loc, err)
			}
		}
		logInfo("Cycle complete in %s", time.Since(start).Round(time.Millisecond))
	}

	logInfo(i18n.T("Watching for changes (press Ctrl+C to stop)"))
	cycle(false)

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			logInfo("Watch stopped")
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !config.IsMarkdown(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logWarning("Watcher: %v", err)

		case <-debounce.C:
			cycle(true)
		}
	}
}

// ---------------------------------------------------------------------------
// export / import (PO exchange for translators)
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <locale>",
		Short: "Export translation tables to a gettext PO catalog",
		Long: `Collect every translation table of a locale into one PO catalog.

Each entry maps one placeholder: msgctxt names the source document, msgid
is the placeholder text, msgstr the current translation (possibly empty).
Translators work the catalog in their PO tooling and hand it back to
import.`,
		Args: requireLocale,
		Run: func(cmd *cobra.Command, args []string) {
			runExport(args[0], out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output .po path (default <translations_dir>/<locale>.po)")

	return cmd
}

func runExport(locale, out string) {
	site := mustSite()
	if err := config.ValidateLocale(locale); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if out == "" {
		out = site.POPath(locale)
	}

	stems, err := tableStems(site, locale)
	if err != nil || len(stems) == 0 {
		logError("No translation tables found for %s in %s", locale, site.TablesDir(locale))
		os.Exit(1)
	}

	po := pofile.NewFile()
	po.Header = pofile.MakeHeader(site.SiteName, locale, time.Now())

	count := 0
	for _, stem := range stems {
		tbl, err := table.ParseFile(filepath.Join(site.TablesDir(locale), stem+".json"))
		if err != nil {
			logError("%v", err)
			os.Exit(1)
		}
		for _, key := range tbl.Keys() {
			po.Entries = append(po.Entries, &pofile.Entry{Context: stem, ID: key, Str: tbl.Get(key)})
			count++
		}
	}

	if err := po.WriteFile(out); err != nil {
		logError("Writing %s: %v", out, err)
		os.Exit(1)
	}
	logSuccess("Exported %d entries to %s", count, out)
}

func newImportCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import <locale>",
		Short: "Fold translations from a PO catalog back into tables",
		Long: `Read a PO catalog produced by export and fold non-empty translations
back into the per-document tables.

Entries whose msgctxt matches no table, or whose msgid matches no key, are
skipped and counted. Fuzzy entries are ignored. Tables rewrite only when a
value actually changed.`,
		Args: requireLocale,
		Run: func(cmd *cobra.Command, args []string) {
			runImport(args[0], in)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Input .po path (default <translations_dir>/<locale>.po)")

	return cmd
}

func runImport(locale, in string) {
	site := mustSite()
	if err := config.ValidateLocale(locale); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if in == "" {
		in = site.POPath(locale)
	}

	po, err := pofile.ParseFile(in)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	// nil marks a context whose table file does not exist.
	tables := make(map[string]*table.File)
	changed := make(map[string]bool)
	updated, skipped, fuzzy := 0, 0, 0

	for _, e := range po.Entries {
		if e.Str == "" {
			continue
		}
		if e.IsFuzzy() {
			fuzzy++
			continue
		}

		tbl, seen := tables[e.Context]
		if !seen {
			path := filepath.Join(site.TablesDir(locale), e.Context+".json")
			if fileExists(path) {
				if tbl, err = table.ParseFile(path); err != nil {
					logError("%v", err)
					os.Exit(1)
				}
			}
			tables[e.Context] = tbl
		}
		if tbl == nil {
			skipped++
			continue
		}

		if !tbl.Has(e.ID) {
			skipped++
			continue
		}
		if tbl.Get(e.ID) != e.Str {
			tbl.Set(e.ID, e.Str)
			changed[e.Context] = true
			updated++
		}
	}

	stems := make([]string, 0, len(changed))
	for stem := range changed {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		path := filepath.Join(site.TablesDir(locale), stem+".json")
		if err := tables[stem].WriteFile(path); err != nil {
			logError("Writing %s: %v", path, err)
			os.Exit(1)
		}
		logSuccess("Updated: %s", relPath(site, path))
	}

	logInfo("Summary: %d values imported, %d entries skipped, %d fuzzy ignored", updated, skipped, fuzzy)
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// requireLocale validates the single positional locale argument.
func requireLocale(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("locale argument is required (e.g. %s ja)", cmd.CommandPath())
	}
	return nil
}

// mustSite loads the site configuration or exits.
func mustSite() *config.Site {
	site, err := config.Load(rootDir)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	return site
}

// loadLock reads the extraction lock file; a damaged lock means a fresh
// start, never a failed run.
func loadLock(site *config.Site) *lockfile.LockFile {
	lock, err := lockfile.Load(site.LockPath())
	if err != nil {
		logWarning("Lock file unreadable, starting fresh: %v", err)
		return lockfile.New(site.LockPath())
	}
	return lock
}

// saveLock persists lock checksums. The lock is advisory, so failure only
// warns.
func saveLock(lock *lockfile.LockFile) {
	if err := lock.Save(); err != nil {
		logWarning("Saving lock file: %v", err)
	}
}

// sourceDoc is one extractable document: the name used for table and
// rendered paths, and where the source lives.
type sourceDoc struct {
	Name      string
	Path      string
	Changelog bool
}

// sourceDocs lists the documents of the site: every markdown file in the
// docs directory plus the changelog, which is localized through the same
// tables.
func sourceDocs(site *config.Site) ([]sourceDoc, error) {
	names, err := site.Documents()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]sourceDoc, 0, len(names)+1)
	for _, n := range names {
		docs = append(docs, sourceDoc{Name: n, Path: filepath.Join(site.DocsPath(), n)})
	}

	if p := site.ChangelogPath(); fileExists(p) && filepath.Dir(p) != site.DocsPath() {
		docs = append(docs, sourceDoc{Name: filepath.Base(p), Path: p, Changelog: true})
	}

	return docs, nil
}

// tableStems lists the table file stems of a locale in sorted order.
func tableStems(site *config.Site, locale string) ([]string, error) {
	entries, err := os.ReadDir(site.TablesDir(locale))
	if err != nil {
		return nil, err
	}

	var stems []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return stems, nil
}

// relPath shortens a path to be relative to the site root for log output.
func relPath(site *config.Site, path string) string {
	if rel, err := filepath.Rel(site.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// progressBar renders a fixed-width colored bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	color := colorGreen
	if percent < 50 {
		color = colorRed
	} else if percent < 100 {
		color = colorYellow
	}

	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// localeName returns "English name / native name" for a locale tag.
func localeName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		if _, ok := err.(language.ValueError); !ok {
			return ""
		}
	}

	english := display.English.Tags().Name(tag)
	native := display.Self.Name(tag)
	if native != "" && native != english {
		return english + " / " + native
	}
	return english
}

// langFlag returns the emoji flag for a locale with an explicit region.
func langFlag(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		if _, ok := err.(language.ValueError); !ok {
			return ""
		}
	}

	region, conf := tag.Region()
	if conf != language.Exact || !region.IsCountry() {
		return ""
	}
	return flagFromRegion(region.String())
}

// flagFromRegion builds the regional-indicator emoji pair for an ISO 3166-1
// alpha-2 code.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	a, b := region[0], region[1]
	if a < 'A' || a > 'Z' || b < 'A' || b > 'Z' {
		return ""
	}
	return string(rune(0x1F1E6+rune(a-'A'))) + string(rune(0x1F1E6+rune(b-'A')))
}
