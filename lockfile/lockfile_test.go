package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	h1 := Hash("hello world")
	h2 := Hash("hello world")
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	h3 := Hash("different")
	if h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(filepath.Join(t.TempDir(), ".docloc-lock.yaml"))
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docloc-lock.yaml")
	if err := os.WriteFile(path, []byte("checksums: [not a map"), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on malformed YAML, want error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docloc-lock.yaml")

	lf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Update("ja", "intro.md", "# {{Intro}}\n")
	lf.Update("ja", "setup.md", "# {{Setup}}\n")
	lf.Update("en", "intro.md", "# {{Intro}}\n")

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	// Reload and verify
	lf2, err := Load(path)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	locales, documents := lf2.Stats()
	if locales != 2 {
		t.Errorf("locales = %d, want 2", locales)
	}
	if documents != 3 {
		t.Errorf("documents = %d, want 3", documents)
	}
}

func TestIsChanged(t *testing.T) {
	lf := New("")

	// New entry is always changed
	if !lf.IsChanged("ja", "intro.md", "content") {
		t.Error("new entry should be changed")
	}

	// After update, same content is not changed
	lf.Update("ja", "intro.md", "content")
	if lf.IsChanged("ja", "intro.md", "content") {
		t.Error("unchanged entry should not be changed")
	}

	// Modified content is changed
	if !lf.IsChanged("ja", "intro.md", "content!") {
		t.Error("modified entry should be changed")
	}

	// Different locale is changed
	if !lf.IsChanged("en", "intro.md", "content") {
		t.Error("different locale should be changed")
	}
}

func TestClean(t *testing.T) {
	lf := New("")

	lf.Update("ja", "intro.md", "intro")
	lf.Update("ja", "setup.md", "setup")
	lf.Update("ja", "deleted.md", "deleted")

	// Only intro and setup remain in current set
	lf.Clean("ja", []string{"intro.md", "setup.md"})

	if lf.IsChanged("ja", "intro.md", "intro") {
		t.Error("intro.md should still be tracked")
	}
	if !lf.IsChanged("ja", "deleted.md", "deleted") {
		t.Error("deleted.md should be removed by Clean")
	}
}

func TestRemoveLocale(t *testing.T) {
	lf := New("")

	lf.Update("ja", "intro.md", "intro")
	lf.RemoveLocale("ja")

	locales, _ := lf.Stats()
	if locales != 0 {
		t.Errorf("locales after RemoveLocale = %d, want 0", locales)
	}
}

func TestLocales(t *testing.T) {
	lf := New("")

	lf.Update("ja", "intro.md", "intro")
	lf.Update("en", "intro.md", "intro")
	lf.Update("de", "intro.md", "intro")

	locales := lf.Locales()
	expected := []string{"de", "en", "ja"}
	if len(locales) != len(expected) {
		t.Fatalf("locales len = %d, want %d", len(locales), len(expected))
	}
	for i, want := range expected {
		if locales[i] != want {
			t.Errorf("locales[%d] = %q, want %q", i, locales[i], want)
		}
	}
}

func TestSummary(t *testing.T) {
	lf := New("")

	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.Update("ja", "intro.md", "intro")
	lf.Update("en", "intro.md", "intro")
	s := lf.Summary()
	if s == "empty" {
		t.Error("summary should not be empty after updates")
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := New("")

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			doc := "doc" + string(rune('0'+n)) + ".md"
			lf.Update("ja", doc, "value")
			lf.IsChanged("ja", doc, "value")
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, documents := lf.Stats()
	if documents != 10 {
		t.Errorf("documents after concurrent writes = %d, want 10", documents)
	}
}
