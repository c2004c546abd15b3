// Package filesystem provides file access scoped under a per-project root.
// Patch application goes through here so a generated path can never escape
// its project directory.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Root scopes reads and writes under one project directory.
type Root struct {
	dir string
}

// NewRoot creates a scoped root for the given project directory.
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve project root %s: %w", dir, err)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the absolute project root directory.
func (r *Root) Dir() string {
	return r.dir
}

// resolve maps a project-relative path to an absolute one, rejecting any
// path that would land outside the root.
func (r *Root) resolve(relPath string) (string, error) {
	abs := filepath.Join(r.dir, filepath.FromSlash(relPath))
	cleaned := filepath.Clean(abs)
	if cleaned != r.dir && !strings.HasPrefix(cleaned, r.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes project root", relPath)
	}
	return cleaned, nil
}

// Exists reports whether a project-relative file exists.
func (r *Root) Exists(relPath string) bool {
	abs, err := r.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// ReadFile reads a project-relative file.
func (r *Root) ReadFile(relPath string) (string, error) {
	abs, err := r.resolve(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("could not read file %s: %w", relPath, err)
	}
	return string(data), nil
}

// WriteFile writes a project-relative file, creating parent directories as
// needed.
func (r *Root) WriteFile(relPath, content string) error {
	abs, err := r.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("could not create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("could not write file %s: %w", relPath, err)
	}
	return nil
}

// RemoveFile deletes a project-relative file. A missing file is not an
// error.
func (r *Root) RemoveFile(relPath string) error {
	abs, err := r.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove file %s: %w", relPath, err)
	}
	return nil
}
