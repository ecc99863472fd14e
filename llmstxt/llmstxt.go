// Package llmstxt generates and post-processes the AI-discovery index files
// (llms.txt and llms-full.txt) that ship with a built documentation site.
//
// The short index follows the llms.txt convention: a level-one title, a
// blockquote summary, and one link per page with its description. The full
// index concatenates every page's markdown. Both files may still contain
// {{placeholder}} markers after the static build; Postprocess substitutes
// them from the merged translation tables.
package llmstxt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/staticdocs/docloc/placeholder"
)

// IndexFile and FullFile are the two generated artifacts.
const (
	IndexFile = "llms.txt"
	FullFile  = "llms-full.txt"
)

// Postprocess rewrites one index file in place, substituting placeholders
// from the merged translation map. It reports whether the file changed.
func Postprocess(path string, merged map[string]string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	out := placeholder.Replace(string(data), merged)
	if out == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// Page is one rendered document, reduced to what the indexes need.
type Page struct {
	File        string // document file name
	Title       string
	Description string
	Content     string // full markdown body, frontmatter stripped
}

// frontmatterBlock matches a leading YAML frontmatter block.
var frontmatterBlock = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// ExtractPage reads title, description, and body from a rendered markdown
// document. Frontmatter fields win; otherwise the first level-one heading
// is the title and the first paragraph the description. A document with
// neither falls back to the file stem.
func ExtractPage(name string, source []byte) Page {
	page := Page{File: name}

	if m := frontmatterBlock.FindSubmatch(source); m != nil {
		var fm struct {
			Title       string `yaml:"title"`
			Description string `yaml:"description"`
		}
		if err := yaml.Unmarshal(m[1], &fm); err == nil {
			page.Title = fm.Title
			page.Description = fm.Description
		}
		source = source[len(m[0]):]
	}
	page.Content = strings.TrimSpace(string(source))

	if page.Title == "" || page.Description == "" {
		title, desc := scanMarkdown(source)
		if page.Title == "" {
			page.Title = title
		}
		if page.Description == "" {
			page.Description = desc
		}
	}
	if page.Title == "" {
		page.Title = docStem(name)
	}
	return page
}

// scanMarkdown walks the goldmark AST for the first level-one heading and
// the first paragraph.
func scanMarkdown(source []byte) (title, description string) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && title == "" {
				title = nodeText(node, source)
				return ast.WalkSkipChildren, nil
			}
		case *ast.Paragraph:
			if description == "" {
				description = nodeText(node, source)
				return ast.WalkSkipChildren, nil
			}
		}
		if title != "" && description != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title, collapseSpace(description)
}

// nodeText collects the plain text under a node.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func docStem(name string) string {
	name = strings.TrimSuffix(name, ".mdx")
	name = strings.TrimSuffix(name, ".md")
	return name
}

// Generate writes llms.txt and llms-full.txt for a locale's pages into dir.
func Generate(dir, siteName string, pages []Page) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	var index strings.Builder
	index.WriteString("# " + siteName + "\n\n")
	index.WriteString("> " + siteName + " documentation.\n\n")
	index.WriteString("## Docs\n\n")
	for _, p := range pages {
		index.WriteString("- [" + p.Title + "](/docs/" + docStem(p.File) + ")")
		if p.Description != "" {
			index.WriteString(": " + p.Description)
		}
		index.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte(index.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", IndexFile, err)
	}

	var full strings.Builder
	for i, p := range pages {
		if i > 0 {
			full.WriteString("\n\n---\n\n")
		}
		full.WriteString(p.Content)
	}
	full.WriteByte('\n')
	if err := os.WriteFile(filepath.Join(dir, FullFile), []byte(full.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", FullFile, err)
	}
	return nil
}
