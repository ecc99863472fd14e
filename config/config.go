// Package config loads the docloc site configuration.
//
// Configuration lives in .docloc.yaml at the site root:
//
//	site_name: Docs
//	default_locale: en
//	locales: [en, ja]
//	docs_dir: docs
//	translations_dir: i18n
//	build_dir: build
//	changelog: CHANGELOG.md
//	releases_out: static/releases.json
//
// Every key is optional. When the file is absent the defaults above apply
// and locales are auto-detected from the translation directory layout.
// A .env file in the site root is loaded first, and DOCLOC_* environment
// variables override file settings so CI pipelines can retarget paths
// without editing the config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FileName is the site config file name.
const FileName = ".docloc.yaml"

// LockFileName is the extraction checksum lock file name.
const LockFileName = ".docloc-lock.yaml"

// Site is the resolved site configuration. All *Dir and path fields are
// relative to Root until resolved through the path helpers.
type Site struct {
	// Root is the site root directory. Not read from YAML.
	Root string `yaml:"-"`

	// SiteName labels generated AI-discovery indexes.
	SiteName string `yaml:"site_name,omitempty"`
	// DefaultLocale is the fallback locale (default "en").
	DefaultLocale string `yaml:"default_locale,omitempty"`
	// Locales lists every locale, default first by convention.
	Locales []string `yaml:"locales,omitempty"`
	// DocsDir holds the source markdown documents.
	DocsDir string `yaml:"docs_dir,omitempty"`
	// TranslationsDir holds per-locale translation tables and rendered docs.
	TranslationsDir string `yaml:"translations_dir,omitempty"`
	// BuildDir is the static-site build output directory.
	BuildDir string `yaml:"build_dir,omitempty"`
	// Changelog is the primary (default-locale) changelog path.
	Changelog string `yaml:"changelog,omitempty"`
	// ReleasesOut is the releases feed output path for the default locale.
	ReleasesOut string `yaml:"releases_out,omitempty"`
}

// Load reads the site configuration rooted at rootDir, applying the file,
// environment overrides, defaults, and locale validation in that order.
func Load(rootDir string) (*Site, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("site root: %w", err)
	}

	// .env is optional and never fatal.
	if envPath := filepath.Join(abs, ".env"); fileExists(envPath) {
		_ = godotenv.Load(envPath)
	}

	s := &Site{Root: abs}

	path := filepath.Join(abs, FileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s.applyEnv()
	s.applyDefaults()

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Site) applyEnv() {
	if v := os.Getenv("DOCLOC_DOCS_DIR"); v != "" {
		s.DocsDir = v
	}
	if v := os.Getenv("DOCLOC_TRANSLATIONS_DIR"); v != "" {
		s.TranslationsDir = v
	}
	if v := os.Getenv("DOCLOC_BUILD_DIR"); v != "" {
		s.BuildDir = v
	}
	if v := os.Getenv("DOCLOC_DEFAULT_LOCALE"); v != "" {
		s.DefaultLocale = v
	}
	if v := os.Getenv("DOCLOC_LOCALES"); v != "" {
		s.Locales = nil
		for _, loc := range strings.Split(v, ",") {
			if loc = strings.TrimSpace(loc); loc != "" {
				s.Locales = append(s.Locales, loc)
			}
		}
	}
}

func (s *Site) applyDefaults() {
	if s.SiteName == "" {
		s.SiteName = filepath.Base(s.Root)
	}
	if s.DefaultLocale == "" {
		s.DefaultLocale = "en"
	}
	if s.DocsDir == "" {
		s.DocsDir = "docs"
	}
	if s.TranslationsDir == "" {
		s.TranslationsDir = "i18n"
	}
	if s.BuildDir == "" {
		s.BuildDir = "build"
	}
	if s.Changelog == "" {
		s.Changelog = "CHANGELOG.md"
	}
	if s.ReleasesOut == "" {
		s.ReleasesOut = filepath.Join("static", "releases.json")
	}

	if len(s.Locales) == 0 {
		s.Locales = s.detectLocales()
	}

	// The default locale always leads the list.
	locales := []string{s.DefaultLocale}
	for _, loc := range s.Locales {
		if loc != s.DefaultLocale {
			locales = append(locales, loc)
		}
	}
	s.Locales = locales
}

// detectLocales scans the translation directory for per-locale
// subdirectories, so existing translations declare their own locales.
func (s *Site) detectLocales() []string {
	entries, err := os.ReadDir(filepath.Join(s.Root, s.TranslationsDir))
	if err != nil {
		return nil
	}

	var locales []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := language.Parse(entry.Name()); err != nil {
			continue
		}
		locales = append(locales, entry.Name())
	}
	sort.Strings(locales)
	return locales
}

func (s *Site) validate() error {
	for _, loc := range s.Locales {
		if err := ValidateLocale(loc); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLocale checks that a locale identifier is a well-formed BCP 47 tag.
func ValidateLocale(locale string) error {
	if locale == "" {
		return fmt.Errorf("empty locale")
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return nil
}

// SecondaryLocales returns every configured locale except the default.
func (s *Site) SecondaryLocales() []string {
	var out []string
	for _, loc := range s.Locales {
		if loc != s.DefaultLocale {
			out = append(out, loc)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Path helpers (all absolute)
// ---------------------------------------------------------------------------

// DocsPath returns the source documents directory.
func (s *Site) DocsPath() string {
	return filepath.Join(s.Root, s.DocsDir)
}

// TablesDir returns the translation table directory for a locale.
func (s *Site) TablesDir(locale string) string {
	return filepath.Join(s.Root, s.TranslationsDir, locale)
}

// TablePath returns the translation table file for one document in a locale.
func (s *Site) TablePath(locale, doc string) string {
	return filepath.Join(s.TablesDir(locale), DocStem(doc)+".json")
}

// RenderedDir returns the rendered documents directory for a locale.
func (s *Site) RenderedDir(locale string) string {
	return filepath.Join(s.TablesDir(locale), "docs")
}

// ChangelogPath returns the primary changelog path.
func (s *Site) ChangelogPath() string {
	return filepath.Join(s.Root, s.Changelog)
}

// LocalizedChangelog returns the rendered changelog path for a locale.
func (s *Site) LocalizedChangelog(locale string) string {
	return filepath.Join(s.TablesDir(locale), filepath.Base(s.Changelog))
}

// ReleasesPath returns the releases feed output path for a locale. The
// default locale writes the configured path; other locales insert the
// locale before the extension (releases.json becomes releases-ja.json).
func (s *Site) ReleasesPath(locale string) string {
	out := filepath.Join(s.Root, s.ReleasesOut)
	if locale == s.DefaultLocale {
		return out
	}
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "-" + locale + ext
}

// BuildPath returns the build output directory for a locale. The default
// locale builds at the top level; other locales build into a subdirectory.
func (s *Site) BuildPath(locale string) string {
	if locale == s.DefaultLocale {
		return filepath.Join(s.Root, s.BuildDir)
	}
	return filepath.Join(s.Root, s.BuildDir, locale)
}

// POPath returns the default PO exchange file path for a locale.
func (s *Site) POPath(locale string) string {
	return filepath.Join(s.Root, s.TranslationsDir, locale+".po")
}

// LockPath returns the extraction lock file path.
func (s *Site) LockPath() string {
	return filepath.Join(s.Root, LockFileName)
}

// ---------------------------------------------------------------------------
// Source documents
// ---------------------------------------------------------------------------

// Documents lists the source document file names (flat *.md / *.mdx under
// the docs directory), sorted.
func (s *Site) Documents() ([]string, error) {
	entries, err := os.ReadDir(s.DocsPath())
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() || !IsMarkdown(entry.Name()) {
			continue
		}
		docs = append(docs, entry.Name())
	}
	return docs, nil
}

// IsMarkdown reports whether name looks like a markdown document.
func IsMarkdown(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".mdx")
}

// DocStem strips the markdown extension from a document file name; table
// files are named after the stem.
func DocStem(doc string) string {
	doc = strings.TrimSuffix(doc, ".mdx")
	doc = strings.TrimSuffix(doc, ".md")
	return doc
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
