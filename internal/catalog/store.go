package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// TemplateFileName is the name the bundled default catalog is installed under.
const TemplateFileName = "dnsswitcher.default.json"

//go:embed dnsswitcher.default.json
var defaultTemplate []byte

// Load reads and decodes the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	cat, err := Decode(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return cat, nil
}

// Save writes the catalog to path, replacing the previous file atomically.
func Save(path string, cat *Catalog) error {
	data, err := Encode(cat)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// HasChangedSince reports whether the file at path was modified after last.
// A zero last always reports a change, as does any failure to stat the file.
// The returned time is the new value to remember.
func HasChangedSince(path string, last time.Time) (bool, time.Time) {
	info, err := os.Stat(path)
	if err != nil {
		return true, last
	}
	mod := info.ModTime()
	if last.IsZero() {
		return true, mod
	}
	return mod.After(last), mod
}

// EnsureDefaultExists copies the template to path when path does not exist.
func EnsureDefaultExists(templatePath, path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat catalog: %w", err)
	}
	return copyTemplate(templatePath, path)
}

// RestoreDefaults overwrites path with the template, discarding any edits.
func RestoreDefaults(templatePath, path string) error {
	return copyTemplate(templatePath, path)
}

// InstallTemplate writes the bundled template into dir unless an identical
// copy is already there, and returns its path.
func InstallTemplate(dir string) (string, error) {
	path := filepath.Join(dir, TemplateFileName)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, defaultTemplate) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create template directory: %w", err)
	}
	if err := writeFileAtomic(path, defaultTemplate); err != nil {
		return "", err
	}
	return path, nil
}

func copyTemplate(templatePath, path string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read default catalog: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to create default catalog: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path with data so readers see either the old or
// the new content. A symlinked path is written through to its target.
func writeFileAtomic(path string, data []byte) error {
	target, err := resolveTarget(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := renameio.WriteFile(target, data, 0644, renameio.WithTempDir(dir)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// resolveTarget follows symlinks at path. A path that does not exist yet is
// its own target; a dangling link resolves to where it points.
func resolveTarget(path string) (string, error) {
	target, err := filepath.EvalSymlinks(path)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	// Dangling link: write where it points.
	if dest, lerr := os.Readlink(path); lerr == nil {
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		return dest, nil
	}
	return path, nil
}
