package filler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/a3tai/mcp-form-filler/internal/stamp/errors"
)

func extension(path string) string {
	return filepath.Ext(path)
}

// DerivedPath returns <dir>/<stem><suffix><ext> for source
func DerivedPath(source, suffix string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	if ext == "" {
		ext = ".pdf"
	}
	return filepath.Join(filepath.Dir(source), stem+suffix+ext)
}

// writeFile streams write into a temporary file next to path and renames it into place once
// write has succeeded. On failure the temporary file is removed and path is left untouched.
func writeFile(path string, write func(io.Writer) error) (err error) {
	const op = "write output"

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.IO(op, "cannot create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ferrors.IO(op, "cannot create temporary file", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return ferrors.IO(op, "cannot flush output", err)
	}
	if err := tmp.Close(); err != nil {
		return ferrors.IO(op, "cannot close output", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return ferrors.IO(op, "cannot set output permissions", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ferrors.IO(op, fmt.Sprintf("cannot move output into place at %s", path), err)
	}
	return nil
}
