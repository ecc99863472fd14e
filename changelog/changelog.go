// Package changelog parses conventional-changelog release notes into the
// public releases feed.
//
// A release heading carries the version in brackets, a compare link, and a
// parenthesized date:
//
//	## [1.2.3](https://github.com/org/repo/compare/v1.2.2...v1.2.3) (2024-05-01)
//
// The text between one release heading and the next is the release section.
// Within it, the Features / Bug Fixes / Security sub-headings are located by
// their placeholder-wrapped English labels (the source changelog), their
// localized text (a rendered changelog), or the plain English text (a
// rendered changelog that fell back), and list items are reduced to their
// human-readable description.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/staticdocs/docloc/placeholder"
)

const (
	// MaxParsed caps how many releases are read from a changelog.
	MaxParsed = 5
	// MaxRecent caps how many releases the feed retains.
	MaxRecent = 4
)

// Release is one parsed changelog entry.
type Release struct {
	Version  string   `json:"version"`
	Date     string   `json:"date"`
	URL      string   `json:"url"`
	Features []string `json:"features"`
	BugFixes []string `json:"bugFixes"`
	Security []string `json:"security"`
}

// Feed is the public releases feed envelope.
type Feed struct {
	Latest    Release   `json:"latest"`
	Recent    []Release `json:"recent"`
	Generated string    `json:"generated"`
}

// Labels holds the recognized sub-heading texts per category, tried in
// order. The English forms — placeholder-wrapped and plain — stay in the
// localized sets so an unrendered changelog, or one rendered with fallback
// text, still parses.
type Labels struct {
	Features []string
	BugFixes []string
	Security []string
}

// englishLabels are the category keys as they appear inside placeholders in
// the source changelog.
var englishLabels = [3]string{"Features", "Bug Fixes", "Security"}

// DefaultLabels returns the labels of the default-locale (source) changelog.
func DefaultLabels() Labels {
	return Labels{
		Features: []string{wrap(englishLabels[0]), englishLabels[0]},
		BugFixes: []string{wrap(englishLabels[1]), englishLabels[1]},
		Security: []string{wrap(englishLabels[2]), englishLabels[2]},
	}
}

// LocalizedLabels builds labels from a changelog translation table. Missing
// or untranslated entries leave only the English fallback.
func LocalizedLabels(tbl map[string]string) Labels {
	l := DefaultLabels()
	if v := tbl[englishLabels[0]]; v != "" {
		l.Features = append([]string{v}, l.Features...)
	}
	if v := tbl[englishLabels[1]]; v != "" {
		l.BugFixes = append([]string{v}, l.BugFixes...)
	}
	if v := tbl[englishLabels[2]]; v != "" {
		l.Security = append([]string{v}, l.Security...)
	}
	return l
}

func wrap(label string) string {
	return "{{" + label + "}}"
}

// releaseHeading matches "version in brackets, link, parenthesized date" at
// heading level two or three.
var releaseHeading = regexp.MustCompile(`(?m)^#{2,3} \[([^\]]+)\]\(([^)]+)\)[ \t]*\(([^)]+)\)[ \t]*$`)

// anyHeading matches any markdown heading line.
var anyHeading = regexp.MustCompile(`(?m)^(#{1,6}) +(.*?)[ \t]*$`)

// listItem matches one bullet item.
var listItem = regexp.MustCompile(`^[-*] +(.*)$`)

// boldLabel matches the leading "**package:**" style scope label on an item.
var boldLabel = regexp.MustCompile(`^\*\*[^*]+\*\*:?[ \t]*`)

// commitRef matches a trailing parenthesized commit link on an item.
var commitRef = regexp.MustCompile(`[ \t]*\(\[[^\]]*\]\([^)]*\)\)[ \t]*$`)

// Parse extracts up to max releases from changelog text, newest first by
// document order. max <= 0 means no limit.
func Parse(text string, labels Labels, max int) []Release {
	headings := releaseHeading.FindAllStringSubmatchIndex(text, -1)

	var releases []Release
	for i, h := range headings {
		if max > 0 && len(releases) >= max {
			break
		}

		sectionStart := h[1]
		sectionEnd := len(text)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1][0]
		}

		rel := Release{
			Version:  text[h[2]:h[3]],
			URL:      text[h[4]:h[5]],
			Date:     text[h[6]:h[7]],
			Features: []string{},
			BugFixes: []string{},
			Security: []string{},
		}
		parseSection(text[sectionStart:sectionEnd], labels, &rel)
		releases = append(releases, rel)
	}
	return releases
}

// parseSection fills the category lists of rel from one release section.
func parseSection(section string, labels Labels, rel *Release) {
	headings := anyHeading.FindAllStringSubmatchIndex(section, -1)

	for i, h := range headings {
		label := section[h[4]:h[5]]

		var list *[]string
		switch {
		case matchLabel(label, labels.Features):
			list = &rel.Features
		case matchLabel(label, labels.BugFixes):
			list = &rel.BugFixes
		case matchLabel(label, labels.Security):
			list = &rel.Security
		default:
			continue
		}

		bodyStart := h[1]
		bodyEnd := len(section)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1][0]
		}
		*list = append(*list, parseItems(section[bodyStart:bodyEnd])...)
	}
}

func matchLabel(text string, candidates []string) bool {
	for _, c := range candidates {
		if text == c {
			return true
		}
	}
	return false
}

// parseItems extracts one description per bullet line, stripping the leading
// bold scope label, any placeholder wrapping, and a trailing commit link.
func parseItems(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		m := listItem.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		item := m[1]
		item = boldLabel.ReplaceAllString(item, "")
		item = commitRef.ReplaceAllString(item, "")
		item = placeholder.Strip(item)
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseFile reads and parses a changelog from disk.
func ParseFile(path string, labels Labels, max int) ([]Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), labels, max), nil
}

// BuildFeed assembles the feed envelope from parsed releases, newest first.
func BuildFeed(releases []Release, now time.Time) (*Feed, error) {
	if len(releases) == 0 {
		return nil, fmt.Errorf("no releases found")
	}

	recent := releases
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}

	return &Feed{
		Latest:    releases[0],
		Recent:    recent,
		Generated: now.UTC().Format(time.RFC3339),
	}, nil
}

// WriteFile writes the feed as indented JSON.
func (f *Feed) WriteFile(path string) error {
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
