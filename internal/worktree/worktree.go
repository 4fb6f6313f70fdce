// Package worktree owns every mutation of the repository checkout: removing
// build byproducts and creating release tags.
package worktree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/toolchain"
)

// Rules select what Clean removes.
type Rules struct {
	// Paths are removed relative to the tree root.
	Paths []string
	// Patterns are matched against base names anywhere in the tree outside
	// the skipped directories.
	Patterns []string
	// Skip names extra directories the pattern walk never enters, on top of
	// DefaultSkip.
	Skip []string
}

// DefaultSkip holds directories that belong to tools rather than the build.
// Pattern matching never reaches into them.
var DefaultSkip = []string{".git", ".hg", ".svn", ".venv", "venv", ".tox", "node_modules", "vendor"}

// Tree is a repository checkout.
type Tree struct {
	Root  string
	Rules Rules
	Tags  toolchain.TagClient
}

// New returns a Tree rooted at root.
func New(root string, rules Rules, tags toolchain.TagClient) *Tree {
	return &Tree{Root: root, Rules: rules, Tags: tags}
}

// Clean removes build byproducts and returns the removed paths relative to
// the root. Missing paths are not an error.
func (t *Tree) Clean(ctx context.Context) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	for _, p := range t.Rules.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid clean pattern %q: %w", p, err)
		}
	}

	root := t.Root
	if root == "" {
		root = "."
	}

	paths := make([]string, 0, len(t.Rules.Paths))
	for _, p := range t.Rules.Paths {
		if strings.TrimSpace(p) == "" {
			logger.Warn("Skipping empty clean path")
			continue
		}
		rel, err := localPath(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, rel)
	}

	var removed []string
	for _, rel := range paths {
		target := filepath.Join(root, rel)
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			return removed, fmt.Errorf("failed to remove %q: %w", rel, err)
		}
		removed = append(removed, rel)
	}

	skip := make(map[string]bool, len(DefaultSkip)+len(t.Rules.Skip))
	for _, name := range append(append([]string{}, DefaultSkip...), t.Rules.Skip...) {
		skip[name] = true
	}

	var matched []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() && skip[d.Name()] {
			return filepath.SkipDir
		}
		if !t.matches(d.Name()) {
			return nil
		}
		matched = append(matched, path)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to walk %q: %w", root, err)
	}

	for _, path := range matched {
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %q: %w", path, err)
		}
		rel, _ := filepath.Rel(root, path)
		removed = append(removed, rel)
	}

	sort.Strings(removed)
	logger.Debug("Working tree cleaned", "removed", len(removed))
	return removed, nil
}

// localPath cleans p and rejects anything that is absolute, names the root
// itself or climbs out of it.
func localPath(p string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(p))
	if rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("clean path %q must name a location inside the working tree", p)
	}
	return rel, nil
}

func (t *Tree) matches(name string) bool {
	for _, p := range t.Rules.Patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// CreateTag creates the named tag, refusing names that are already taken.
func (t *Tree) CreateTag(ctx context.Context, name string) error {
	if t.Tags == nil {
		return fmt.Errorf("no tag client configured")
	}
	if name == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	exists, err := t.Tags.TagExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if exists {
		return &toolchain.TagExistsError{Name: name}
	}
	if err := t.Tags.CreateTag(ctx, name); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Tag created", "tag", name)
	return nil
}
