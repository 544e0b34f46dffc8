package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Dir manages the per profile configuration directories.
type Dir struct {
	root string
	mx   sync.RWMutex
}

// NewDir creates a new Dir at the specified root path.
func NewDir(root string) *Dir {
	return &Dir{
		root: root,
	}
}

// Root returns the profiles directory.
func (d *Dir) Root() string {
	d.mx.RLock()
	defer d.mx.RUnlock()

	return d.root
}

// ProfilePath returns the path to a profile's configuration directory.
func (d *Dir) ProfilePath(profile string) string {
	return filepath.Join(d.Root(), SanitizeFileName(profile))
}

// ConfigPath returns the path to a profile's config.yaml file.
func (d *Dir) ConfigPath(profile string) string {
	return filepath.Join(d.ProfilePath(profile), "config.yaml")
}

// Load reads the saved state of a profile. A profile never saved gets a
// fresh state.
func (d *Dir) Load(profile string) (*ProfileContext, error) {
	ctx := NewProfileContext(profile)
	if d.Root() == "" {
		return ctx, nil
	}

	if err := LoadYAML(d.ConfigPath(profile), ctx); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load profile config: %w", err)
	}
	ctx.ProfileName = profile
	ctx.Validate()

	return ctx, nil
}

// Save writes the state of a profile.
func (d *Dir) Save(ctx *ProfileContext) error {
	if ctx == nil {
		return fmt.Errorf("cannot save a nil profile context")
	}
	if _, err := EnsureDirPath(d.ProfilePath(ctx.ProfileName), 0700); err != nil {
		return fmt.Errorf("failed to ensure profile directory: %w", err)
	}

	ctx.mx.RLock()
	defer ctx.mx.RUnlock()
	if err := SaveYAML(d.ConfigPath(ctx.ProfileName), ctx); err != nil {
		return fmt.Errorf("failed to save profile config: %w", err)
	}

	return nil
}

// ListProfiles returns the profiles that have a saved config.
func (d *Dir) ListProfiles() ([]string, error) {
	root := d.Root()
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var profiles []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "config.yaml")); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		profiles = append(profiles, entry.Name())
	}
	sort.Strings(profiles)

	return profiles, nil
}
