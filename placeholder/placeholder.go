// Package placeholder implements scanning and substitution of {{...}}
// localization markers in markdown documents.
//
// A placeholder is two open braces, optional whitespace, non-greedy text,
// optional whitespace, two close braces:
//
//	# {{Example Title}}
//
// The trimmed inner text is the translation key. Substitution recognizes
// two spacing variants of the same key — the compact form {{key}} and the
// spaced form { { key } } that some formatters produce — and replaces both
// with the same value. Unmatched or malformed braces are not placeholders
// and are left alone.
package placeholder

import (
	"regexp"
	"sort"
	"strings"
)

// marker matches a single placeholder. The dot does not cross newlines, so
// an opening brace pair without a closing pair on the same line stays raw.
var marker = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Scan returns the key of every placeholder in content, in document order,
// first occurrence wins.
func Scan(content string) []string {
	matches := marker.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// forms returns the literal placeholder spellings substituted for a key.
func forms(key string) [2]string {
	return [2]string{
		"{{" + key + "}}",
		"{ { " + key + " } }",
	}
}

// Replace substitutes every placeholder whose key maps to a non-empty value
// in table. Keys are applied in sorted order so the result is deterministic.
func Replace(content string, table map[string]string) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		if table[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, form := range forms(k) {
			content = strings.ReplaceAll(content, form, table[k])
		}
	}
	return content
}

// ReplaceWithFallback substitutes placeholders from table, then runs a second
// pass with fallback values for keys that table lacks or leaves empty. The
// fallback applies per placeholder, so a partially translated table still
// renders fully.
func ReplaceWithFallback(content string, table, fallback map[string]string) string {
	content = Replace(content, table)

	if len(fallback) == 0 {
		return content
	}
	rest := make(map[string]string)
	for k, v := range fallback {
		if v == "" {
			continue
		}
		if table[k] == "" {
			rest[k] = v
		}
	}
	return Replace(content, rest)
}

// Strip removes placeholder wrapping, keeping the trimmed inner text.
func Strip(content string) string {
	return marker.ReplaceAllStringFunc(content, func(m string) string {
		sub := marker.FindStringSubmatch(m)
		return sub[1]
	})
}

// Contains reports whether content still holds any placeholder.
func Contains(content string) bool {
	return marker.MatchString(content)
}
