package bundle

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/vk/shipgrid/internal/ctxlog"
)

// ArchiveMode is the permission of a finished archive.
const ArchiveMode fs.FileMode = 0o644

// Bundler writes manifests to archives.
type Bundler struct {
	// Dir is the working directory relative paths resolve against.
	Dir string
	// HTTP uploads the archive when the manifest names an upload URL.
	HTTP *http.Client
}

// New returns a Bundler rooted at dir.
func New(dir string) *Bundler {
	return &Bundler{Dir: dir, HTTP: &http.Client{}}
}

// Bundle checks every manifest path, then writes the archive and returns
// its path. Nothing is written if any path is missing, and a failure while
// writing removes the partial file.
func (b *Bundler) Bundle(ctx context.Context, m *Manifest) (string, error) {
	logger := ctxlog.FromContext(ctx).With("output", m.Output)

	if err := m.Validate(); err != nil {
		return "", err
	}

	var missing []string
	for _, e := range m.Entries {
		if _, err := os.Lstat(m.source(b.Dir, e)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("failed to stat bundle entry %q: %w", e.Path, err)
			}
			missing = append(missing, m.source("", e))
		}
	}
	if len(missing) > 0 {
		return "", &MissingError{Paths: missing}
	}

	out := m.Output
	if !filepath.IsAbs(out) && b.Dir != "" {
		out = filepath.Join(b.Dir, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".bundle-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp archive: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := b.write(ctx, tmp, m); err != nil {
		return "", err
	}
	if err := tmp.Chmod(ArchiveMode); err != nil {
		return "", fmt.Errorf("failed to set archive mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}
	committed = true
	logger.Info("Workflow bundle written", "entries", len(m.Entries))

	if m.UploadURL != "" {
		if err := b.upload(ctx, out, m.UploadURL); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (b *Bundler) write(ctx context.Context, w io.Writer, m *Manifest) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, e := range m.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addTree(tw, m.source(b.Dir, e), archiveName(e.Path)); err != nil {
			return fmt.Errorf("failed to archive %q: %w", e.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// addTree writes src under name, recursing into directories.
func addTree(tw *tar.Writer, src, name string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		entryName := name
		if rel != "." {
			entryName = path.Join(name, filepath.ToSlash(rel))
		}
		return addFile(tw, p, entryName, d)
	})
}

func addFile(tw *tar.Writer, p, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
