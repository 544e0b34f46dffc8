package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	dirMode  os.FileMode = 0700
	fileMode os.FileMode = 0600
)

var pathReplacer = strings.NewReplacer(":", "-", "/", "-", `\`, "-")

// SanitizeFileName makes a profile or object name usable as a file name.
func SanitizeFileName(name string) string {
	return pathReplacer.Replace(name)
}

// EnsureDirPath creates path and its parents and returns it.
func EnsureDirPath(path string, perm os.FileMode) (string, error) {
	if err := os.MkdirAll(path, perm); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	return path, nil
}

// SaveYAML writes v to path through a temporary file so readers, the config
// watcher included, never observe a partial document.
func SaveYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	dir, err := EnsureDirPath(filepath.Dir(path), dirMode)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write YAML file %q: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write YAML file %q: %w", path, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write YAML file %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write YAML file %q: %w", path, err)
	}

	return os.Rename(tmp.Name(), path)
}

// LoadYAML decodes the YAML file at path into v. A missing file yields an
// error wrapping os.ErrNotExist.
func LoadYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal YAML from %q: %w", path, err)
	}

	return nil
}
