// Package bundle assembles the workflow distribution archive: a fixed
// manifest of files and directories, checked up front and written as a
// gzip-compressed tarball that either appears complete or not at all.
package bundle

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Entry is one manifest item. Path is both the location relative to the
// base directory and the name stored in the archive.
type Entry struct {
	Path string
	// Base overrides the manifest Root for this entry.
	Base string
}

// Manifest is the static bundle definition.
type Manifest struct {
	// Root is the default base directory for entries.
	Root string
	// Output is the archive path.
	Output string
	// UploadURL, when set, receives the finished archive via HTTP PUT.
	UploadURL string
	Entries   []Entry
}

// source resolves the entry on disk, relative to dir when not absolute.
func (m *Manifest) source(dir string, e Entry) string {
	base := e.Base
	if base == "" {
		base = m.Root
	}
	p := filepath.Join(base, filepath.FromSlash(e.Path))
	if !filepath.IsAbs(p) && dir != "" {
		p = filepath.Join(dir, p)
	}
	return p
}

// Validate checks the manifest is structurally sound. It does not touch the
// filesystem.
func (m *Manifest) Validate() error {
	if m.Output == "" {
		return fmt.Errorf("bundle manifest has no output path")
	}
	if len(m.Entries) == 0 {
		return fmt.Errorf("bundle manifest has no entries")
	}
	seen := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		name := archiveName(e.Path)
		if name == "" || name == "." || path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("bundle entry %q must be a relative path inside its base", e.Path)
		}
		if seen[name] {
			return fmt.Errorf("bundle entry %q listed more than once", e.Path)
		}
		seen[name] = true
	}
	return nil
}

func archiveName(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// MissingError lists manifest paths that did not exist at bundle time.
type MissingError struct {
	Paths []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("bundle manifest paths not found: %s", strings.Join(e.Paths, ", "))
}
