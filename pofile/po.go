// Package pofile implements a minimal reader and writer for GNU gettext PO
// files, used to exchange translation tables with translators.
//
// One entry maps one placeholder to its translation, with msgctxt naming
// the source document the placeholder came from:
//
//	msgctxt "getting-started"
//	msgid "Example Title"
//	msgstr "サンプルタイトル"
//
// Plural forms and obsolete entries are not part of the exchange format;
// unknown comment lines are preserved as translator comments on read and
// fuzzy flags are honored so unsure translations are not imported.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is a single message in a PO file.
type Entry struct {
	// Comments are translator comment lines ("# ...").
	Comments []string
	// Flags are "#," flags such as fuzzy.
	Flags []string
	// Context is the msgctxt: the source document stem.
	Context string
	// ID is the msgid: the placeholder text.
	ID string
	// Str is the msgstr: the translation, possibly empty.
	Str string
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// File is a parsed PO file.
type File struct {
	// Header is the metadata entry (msgid "").
	Header *Entry
	// Entries are the message entries in file order.
	Entries []*Entry
}

// NewFile returns an empty PO file with a blank header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// MakeHeader builds the metadata entry for an exported catalog.
func MakeHeader(project, locale string, now time.Time) *Entry {
	stamp := now.UTC().Format("2006-01-02 15:04+0000")
	return &Entry{
		Comments: []string{fmt.Sprintf("%s translation catalog for %s.", project, locale)},
		Str: fmt.Sprintf(
			"Project-Id-Version: %s\n"+
				"PO-Revision-Date: %s\n"+
				"Language: %s\n"+
				"MIME-Version: 1.0\n"+
				"Content-Type: text/plain; charset=UTF-8\n"+
				"Content-Transfer-Encoding: 8bit\n",
			project, stamp, locale,
		),
	}
}

// HeaderField returns a header field value by name.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.Str, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			if strings.EqualFold(strings.TrimSpace(line[:idx]), name) {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}

// Parse reads a PO file from a reader.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var current *Entry
	var lastField string

	flush := func() {
		if current == nil {
			return
		}
		if current.ID == "" && current.Context == "" {
			f.Header = current
		} else {
			f.Entries = append(f.Entries, current)
		}
		current = nil
		lastField = ""
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			current = &Entry{}
		}

		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, "#,") {
				for _, flag := range strings.Split(strings.TrimSpace(line[2:]), ",") {
					if flag = strings.TrimSpace(flag); flag != "" {
						current.Flags = append(current.Flags, flag)
					}
				}
			} else {
				comment := strings.TrimPrefix(line[1:], " ")
				current.Comments = append(current.Comments, comment)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "msgctxt "):
			current.Context = unquote(strings.TrimPrefix(line, "msgctxt "))
			lastField = "msgctxt"
		case strings.HasPrefix(line, "msgid "):
			current.ID = unquote(strings.TrimPrefix(line, "msgid "))
			lastField = "msgid"
		case strings.HasPrefix(line, "msgstr "):
			current.Str = unquote(strings.TrimPrefix(line, "msgstr "))
			lastField = "msgstr"
		case strings.HasPrefix(line, "\""):
			val := unquote(line)
			switch lastField {
			case "msgctxt":
				current.Context += val
			case "msgid":
				current.ID += val
			case "msgstr":
				current.Str += val
			default:
				return nil, fmt.Errorf("line %d: continuation without field: %s", lineNum, line)
			}
		default:
			return nil, fmt.Errorf("line %d: unsupported line: %s", lineNum, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	return f, nil
}

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Write writes the PO file to a writer.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if f.Header != nil {
		writeEntry(bw, f.Header)
	}
	for _, e := range f.Entries {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}
	return bw.Flush()
}

// WriteFile writes the PO file to disk, creating parent directories.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return f.Write(out)
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.Comments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.Context != "" {
		writeQuotedField(w, "msgctxt", e.Context)
	}
	writeQuotedField(w, "msgid", e.ID)
	writeQuotedField(w, "msgstr", e.Str)
}

// writeQuotedField writes a PO field, splitting multiline values into
// continuation strings the way gettext tools do.
func writeQuotedField(w *bufio.Writer, field, value string) {
	if !strings.Contains(value, "\n") {
		fmt.Fprintf(w, "%s %s\n", field, quote(value))
		return
	}

	fmt.Fprintf(w, "%s \"\"\n", field)
	parts := strings.Split(value, "\n")
	for i, part := range parts {
		if i < len(parts)-1 {
			fmt.Fprintf(w, "%s\n", quote(part+"\n"))
		} else if part != "" {
			fmt.Fprintf(w, "%s\n", quote(part))
		}
	}
}

// quote produces a PO-style quoted string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return `"` + s + `"`
}

// unquote removes PO-style quoting from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]

	var result strings.Builder
	result.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				result.WriteByte('\n')
				i++
			case 't':
				result.WriteByte('\t')
				i++
			case '\\':
				result.WriteByte('\\')
				i++
			case '"':
				result.WriteByte('"')
				i++
			default:
				result.WriteByte(s[i])
			}
		} else {
			result.WriteByte(s[i])
		}
	}
	return result.String()
}
