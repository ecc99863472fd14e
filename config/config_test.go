package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if s.DefaultLocale != "en" {
		t.Fatalf("DefaultLocale = %q, want en", s.DefaultLocale)
	}
	if s.DocsDir != "docs" || s.TranslationsDir != "i18n" || s.BuildDir != "build" {
		t.Fatalf("unexpected dir defaults: %q %q %q", s.DocsDir, s.TranslationsDir, s.BuildDir)
	}
	if s.Changelog != "CHANGELOG.md" {
		t.Fatalf("Changelog = %q", s.Changelog)
	}
	if !reflect.DeepEqual(s.Locales, []string{"en"}) {
		t.Fatalf("Locales = %#v, want [en]", s.Locales)
	}
	if s.SiteName != filepath.Base(tmp) {
		t.Fatalf("SiteName = %q, want %q", s.SiteName, filepath.Base(tmp))
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, FileName), `
site_name: Example Docs
default_locale: en
locales: [ja, en]
docs_dir: pages
releases_out: static/feed.json
`)

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if s.SiteName != "Example Docs" {
		t.Fatalf("SiteName = %q", s.SiteName)
	}
	if s.DocsDir != "pages" {
		t.Fatalf("DocsDir = %q, want pages", s.DocsDir)
	}
	// Default locale is moved to the front.
	if !reflect.DeepEqual(s.Locales, []string{"en", "ja"}) {
		t.Fatalf("Locales = %#v, want [en ja]", s.Locales)
	}
	if !reflect.DeepEqual(s.SecondaryLocales(), []string{"ja"}) {
		t.Fatalf("SecondaryLocales() = %#v, want [ja]", s.SecondaryLocales())
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, FileName), "locales: [unterminated\n")

	if _, err := Load(tmp); err == nil {
		t.Fatal("Load succeeded on malformed YAML, want error")
	}
}

func TestLoadInvalidLocale(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, FileName), "locales: [en, not a locale]\n")

	if _, err := Load(tmp); err == nil {
		t.Fatal("Load succeeded with invalid locale, want error")
	}
}

func TestDetectLocales(t *testing.T) {
	tmp := t.TempDir()
	for _, dir := range []string{"en", "ja", "pt-BR", "notalocale"} {
		if err := os.MkdirAll(filepath.Join(tmp, "i18n", dir), 0755); err != nil {
			t.Fatal(err)
		}
	}

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !reflect.DeepEqual(s.Locales, []string{"en", "ja", "pt-BR"}) {
		t.Fatalf("Locales = %#v, want [en ja pt-BR]", s.Locales)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, FileName), "docs_dir: pages\n")

	t.Setenv("DOCLOC_DOCS_DIR", "content")
	t.Setenv("DOCLOC_LOCALES", "en, de")

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if s.DocsDir != "content" {
		t.Fatalf("DocsDir = %q, want env override content", s.DocsDir)
	}
	if !reflect.DeepEqual(s.Locales, []string{"en", "de"}) {
		t.Fatalf("Locales = %#v, want [en de]", s.Locales)
	}
}

func TestDotEnvLoading(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, ".env"), "DOCLOC_BUILD_DIR=out\n")

	// Setenv registers cleanup so the variable set by godotenv is restored.
	t.Setenv("DOCLOC_BUILD_DIR", "")
	os.Unsetenv("DOCLOC_BUILD_DIR")

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.BuildDir != "out" {
		t.Fatalf("BuildDir = %q, want out from .env", s.BuildDir)
	}
}

func TestPaths(t *testing.T) {
	tmp := t.TempDir()

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if got, want := s.TablePath("ja", "intro.md"), filepath.Join(tmp, "i18n", "ja", "intro.json"); got != want {
		t.Fatalf("TablePath() = %q, want %q", got, want)
	}
	if got, want := s.RenderedDir("ja"), filepath.Join(tmp, "i18n", "ja", "docs"); got != want {
		t.Fatalf("RenderedDir() = %q, want %q", got, want)
	}
	if got, want := s.LocalizedChangelog("ja"), filepath.Join(tmp, "i18n", "ja", "CHANGELOG.md"); got != want {
		t.Fatalf("LocalizedChangelog() = %q, want %q", got, want)
	}
	if got, want := s.ReleasesPath("en"), filepath.Join(tmp, "static", "releases.json"); got != want {
		t.Fatalf("ReleasesPath(en) = %q, want %q", got, want)
	}
	if got, want := s.ReleasesPath("ja"), filepath.Join(tmp, "static", "releases-ja.json"); got != want {
		t.Fatalf("ReleasesPath(ja) = %q, want %q", got, want)
	}
	if got, want := s.BuildPath("en"), filepath.Join(tmp, "build"); got != want {
		t.Fatalf("BuildPath(en) = %q, want %q", got, want)
	}
	if got, want := s.BuildPath("ja"), filepath.Join(tmp, "build", "ja"); got != want {
		t.Fatalf("BuildPath(ja) = %q, want %q", got, want)
	}
	if got, want := s.POPath("ja"), filepath.Join(tmp, "i18n", "ja.po"); got != want {
		t.Fatalf("POPath() = %q, want %q", got, want)
	}
}

func TestDocuments(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "docs", "intro.md"), "# {{Intro}}\n")
	writeFile(t, filepath.Join(tmp, "docs", "api.mdx"), "# {{API}}\n")
	writeFile(t, filepath.Join(tmp, "docs", "image.png"), "binary")
	if err := os.MkdirAll(filepath.Join(tmp, "docs", "assets"), 0755); err != nil {
		t.Fatal(err)
	}

	s, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	docs, err := s.Documents()
	if err != nil {
		t.Fatalf("Documents error: %v", err)
	}
	if !reflect.DeepEqual(docs, []string{"api.mdx", "intro.md"}) {
		t.Fatalf("Documents() = %#v", docs)
	}
}

func TestDocStem(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{doc: "intro.md", want: "intro"},
		{doc: "api.mdx", want: "api"},
		{doc: "CHANGELOG.md", want: "CHANGELOG"},
		{doc: "noext", want: "noext"},
	}

	for _, tc := range tests {
		if got := DocStem(tc.doc); got != tc.want {
			t.Fatalf("DocStem(%q) = %q, want %q", tc.doc, got, tc.want)
		}
	}
}
