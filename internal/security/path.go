// Package security confines the files a server may read and write to its forms directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard resolves caller-supplied paths against a root directory and rejects any path
// that escapes it, including through symlinks.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root. The directory does not have to exist yet.
func NewPathGuard(root string) (*PathGuard, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &PathGuard{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve turns path into an absolute path inside the root. Relative paths are taken
// relative to the root; NUL bytes are stripped.
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	abs := filepath.Clean(path)

	if !g.Contains(abs) {
		return "", fmt.Errorf("path is outside the forms directory: %s", path)
	}
	return abs, nil
}

// Contains reports whether path lies within the root once both are cleaned and any existing
// symlinks are evaluated.
func (g *PathGuard) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	roots := []string{g.root}
	if resolved, err := filepath.EvalSymlinks(g.root); err == nil && resolved != g.root {
		roots = append(roots, resolved)
	}

	if !within(abs, roots) {
		return false
	}

	// The target may not exist yet (output files); evaluate the deepest existing ancestor.
	resolved, ok := realPath(abs)
	if !ok {
		return true
	}
	return within(resolved, roots)
}

func within(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func realPath(path string) (string, bool) {
	var rest []string
	current := path
	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", false
			}
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}

// ResolveExisting resolves path and checks it names an existing regular file
func (g *PathGuard) ResolveExisting(path string) (string, error) {
	abs, err := g.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	return abs, nil
}
