package llmstxt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPostprocess(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "llms.txt")
	content := "# {{Example Title}}\n\nSee { { Getting started } } for details.\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	merged := map[string]string{
		"Example Title":   "サンプルタイトル",
		"Getting started": "はじめに",
	}

	changed, err := Postprocess(path, merged)
	if err != nil {
		t.Fatalf("Postprocess error: %v", err)
	}
	if !changed {
		t.Fatal("Postprocess reported no change")
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "# サンプルタイトル\n\nSee はじめに for details.\n"
	if string(out) != want {
		t.Fatalf("postprocessed file = %q, want %q", out, want)
	}
}

func TestPostprocessUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "llms.txt")
	if err := os.WriteFile(path, []byte("no markers here\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed, err := Postprocess(path, map[string]string{"Key": "value"})
	if err != nil {
		t.Fatalf("Postprocess error: %v", err)
	}
	if changed {
		t.Fatal("Postprocess reported change for marker-free file")
	}
}

func TestPostprocessMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Postprocess(filepath.Join(t.TempDir(), "absent.txt"), nil)
	if !os.IsNotExist(err) {
		t.Fatalf("Postprocess error = %v, want not-exist", err)
	}
}

func TestExtractPageFromHeading(t *testing.T) {
	t.Parallel()

	source := []byte("# Getting Started\n\nInstall the package\nand run the build.\n\n## Details\n")
	page := ExtractPage("getting-started.md", source)

	if page.Title != "Getting Started" {
		t.Fatalf("Title = %q, want Getting Started", page.Title)
	}
	if page.Description != "Install the package and run the build." {
		t.Fatalf("Description = %q", page.Description)
	}
	if !strings.HasPrefix(page.Content, "# Getting Started") {
		t.Fatalf("Content = %q", page.Content)
	}
}

func TestExtractPageFrontmatter(t *testing.T) {
	t.Parallel()

	source := []byte("---\ntitle: API Reference\ndescription: Every exported symbol.\n---\n\n# Ignored Heading\n\nBody.\n")
	page := ExtractPage("api.md", source)

	if page.Title != "API Reference" {
		t.Fatalf("Title = %q, want frontmatter title", page.Title)
	}
	if page.Description != "Every exported symbol." {
		t.Fatalf("Description = %q, want frontmatter description", page.Description)
	}
	if strings.Contains(page.Content, "---\ntitle:") {
		t.Fatalf("Content still contains frontmatter: %q", page.Content)
	}
}

func TestExtractPageFallbackTitle(t *testing.T) {
	t.Parallel()

	page := ExtractPage("plain-notes.md", []byte("just prose, no heading\n"))
	if page.Title != "plain-notes" {
		t.Fatalf("Title = %q, want file stem", page.Title)
	}
	if page.Description != "just prose, no heading" {
		t.Fatalf("Description = %q", page.Description)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "build")
	pages := []Page{
		{File: "intro.md", Title: "Introduction", Description: "Start here.", Content: "# Introduction\n\nStart here."},
		{File: "api.mdx", Title: "API", Content: "# API\n\nReference."},
	}

	if err := Generate(dir, "Example Docs", pages); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	index, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(index), "# Example Docs\n") {
		t.Fatalf("index missing site title:\n%s", index)
	}
	if !strings.Contains(string(index), "- [Introduction](/docs/intro): Start here.\n") {
		t.Fatalf("index missing described link:\n%s", index)
	}
	if !strings.Contains(string(index), "- [API](/docs/api)\n") {
		t.Fatalf("index missing bare link:\n%s", index)
	}

	full, err := os.ReadFile(filepath.Join(dir, FullFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "# Introduction\n\nStart here.\n\n---\n\n# API\n\nReference.\n"
	if string(full) != want {
		t.Fatalf("full index = %q, want %q", full, want)
	}
}
