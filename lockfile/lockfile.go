// Package lockfile implements .docloc-lock.yaml — a lock file that tracks
// MD5 checksums of source documents per locale at the time of the last
// extraction. Status reporting uses it to flag stale documents, and watch
// mode uses it to skip documents whose source has not changed.
//
// The lock file is advisory only: a missing or damaged file never blocks a
// run, it just means every document counts as changed.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the .docloc-lock.yaml file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // locale -> document -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// New returns an empty lock file that will save to path.
func New(path string) *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}
}

// Load reads a lock file from path. Returns an empty lock file if the file
// doesn't exist; a parse error is returned so the caller can decide to start
// fresh.
func Load(path string) (*LockFile, error) {
	lf := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// IsChanged checks if a source document has changed since the last
// extraction for the given locale. Returns true if the document is new or
// its content has changed.
func (lf *LockFile) IsChanged(locale, doc, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	docs, ok := lf.Checksums[locale]
	if !ok {
		return true
	}
	oldHash, ok := docs[doc]
	if !ok {
		return true
	}
	return oldHash != Hash(content)
}

// Update records the checksum of a source document after extraction.
func (lf *LockFile) Update(locale, doc, content string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[locale] == nil {
		lf.Checksums[locale] = make(map[string]string)
	}
	lf.Checksums[locale][doc] = Hash(content)
}

// Clean removes checksums for documents that no longer exist, so stale
// entries don't accumulate as documents are renamed or deleted.
func (lf *LockFile) Clean(locale string, currentDocs []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[locale]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentDocs))
	for _, d := range currentDocs {
		valid[d] = true
	}

	for d := range existing {
		if !valid[d] {
			delete(existing, d)
		}
	}
}

// RemoveLocale removes all checksums for a locale.
func (lf *LockFile) RemoveLocale(locale string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, locale)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of locales and total documents in the lock file.
func (lf *LockFile) Stats() (locales, documents int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales = len(lf.Checksums)
	for _, m := range lf.Checksums {
		documents += len(m)
	}
	return
}

// Locales returns the sorted list of locales with recorded checksums.
func (lf *LockFile) Locales() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales := make([]string, 0, len(lf.Checksums))
	for l := range lf.Checksums {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// ---------------------------------------------------------------------------
// Human-readable summary
// ---------------------------------------------------------------------------

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	locales, documents := lf.Stats()
	if locales == 0 {
		return "empty"
	}

	var parts []string
	for _, l := range lf.Locales() {
		n := len(lf.Checksums[l])
		parts = append(parts, fmt.Sprintf("%s: %d documents", l, n))
	}
	return fmt.Sprintf("%d locales, %d documents (%s)", locales, documents, strings.Join(parts, ", "))
}
