// Package table implements reading and writing of per-document translation
// tables.
//
// A table is one flat JSON object per source document per locale, mapping
// placeholder text to its localized string:
//
//	{
//	    "Example Title": "サンプルタイトル",
//	    "Another key": ""
//	}
//
// Keys are the trimmed inner text of the placeholders found in the source
// document. Empty values mean untranslated; renderers fall back to the
// default locale for those. Key order in the file is preserved across read
// and write so diffs stay reviewable.
package table

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File represents a parsed translation table.
type File struct {
	Values map[string]string // placeholder text -> localized text
	// keys preserves the original key order from the file.
	keys []string
}

// New returns an empty table.
func New() *File {
	return &File{Values: make(map[string]string)}
}

// ParseFile reads and parses a translation table from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses translation table JSON, preserving key order.
func Parse(data []byte) (*File, error) {
	// First pass: a full unmarshal validates the document; truncation and
	// non-string values surface here.
	var plain map[string]string
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Second pass: token walk to recover key order.
	dec := json.NewDecoder(strings.NewReader(string(data)))

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing JSON: expected {, got %v", t)
	}

	f := New()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("parsing JSON: expected string key, got %T", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		value, ok := vt.(string)
		if !ok {
			return nil, fmt.Errorf("parsing JSON: expected string value for key %q, got %T", key, vt)
		}

		if _, exists := f.Values[key]; !exists {
			f.keys = append(f.keys, key)
		}
		f.Values[key] = value
	}

	return f, nil
}

// Keys returns the table keys in their original order.
func (f *File) Keys() []string {
	if len(f.keys) > 0 {
		return f.keys
	}

	// Fallback: sorted keys.
	keys := make([]string, 0, len(f.Values))
	for k := range f.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for key, or "" when absent.
func (f *File) Get(key string) string {
	return f.Values[key]
}

// Has reports whether key exists in the table.
func (f *File) Has(key string) bool {
	_, ok := f.Values[key]
	return ok
}

// Set stores a value, appending the key to the order when new.
func (f *File) Set(key, value string) {
	if _, exists := f.Values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.Values[key] = value
}

// Sync folds freshly scanned placeholder keys into the table. Existing keys
// keep their values; keys the document no longer contains are never removed.
// New keys get an empty value, or the key itself when identity is set (the
// default locale maps every placeholder to its own text). Identity mode also
// rewrites existing entries to the identity value. Returns the number of
// keys added.
func (f *File) Sync(keys []string, identity bool) (added int) {
	for _, key := range keys {
		if !f.Has(key) {
			added++
		}
		if identity {
			f.Set(key, key)
			continue
		}
		if !f.Has(key) {
			f.Set(key, "")
		}
	}
	return added
}

// UntranslatedKeys returns keys that have empty values.
func (f *File) UntranslatedKeys() []string {
	var result []string
	for _, k := range f.Keys() {
		if f.Values[k] == "" {
			result = append(result, k)
		}
	}
	return result
}

// Stats returns (total, translated, untranslated) counts.
func (f *File) Stats() (total, translated, untranslated int) {
	total = len(f.Values)
	for _, v := range f.Values {
		if v != "" {
			translated++
		} else {
			untranslated++
		}
	}
	return
}

// WriteFile writes the table back to disk, preserving key order and using
// 4-space indentation.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal produces the JSON output: one flat object, original key order,
// 4-space indentation.
func (f *File) Marshal() ([]byte, error) {
	keys := f.Keys()
	if len(keys) == 0 {
		return []byte("{}\n"), nil
	}

	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		b.WriteString(fmt.Sprintf("    %s: %s", jsonString(k), jsonString(f.Values[k])))
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	return []byte(b.String()), nil
}

// jsonString returns a JSON-encoded string value (with proper escaping).
func jsonString(s string) string {
	return strconv.Quote(s)
}

// Collision records a key loaded from more than one table file with a
// different value. The later file wins.
type Collision struct {
	Key      string
	Path     string // file whose value won
	Previous string
	Value    string
}

// MergeDir loads every .json file found anywhere under dir into one flat
// key -> value map. Files load in sorted path order; on key collision the
// last-loaded value wins and, when the values differ, the collision is
// reported. Keys are expected to be disjoint across documents, so
// collisions are surprising but not fatal.
func MergeDir(dir string) (map[string]string, []Collision, error) {
	merged := make(map[string]string)
	var collisions []Collision

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		f, err := ParseFile(path)
		if err != nil {
			return err
		}
		for _, k := range f.Keys() {
			v := f.Values[k]
			if prev, seen := merged[k]; seen && prev != v {
				collisions = append(collisions, Collision{Key: k, Path: path, Previous: prev, Value: v})
			}
			merged[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return merged, collisions, nil
}

// Overlay returns base with every non-empty entry of locale laid on top.
// Empty locale entries stay untranslated so that base (the default locale)
// keeps supplying the fallback text.
func Overlay(base, locale map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(locale))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range locale {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}
