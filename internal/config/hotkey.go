package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/inventiv/ivs/internal/config/data"
)

// HotKey binds a shortcut to a command.
type HotKey struct {
	ShortCut    string `yaml:"shortCut"`
	Description string `yaml:"description"`
	Command     string `yaml:"command"`
}

// Validate checks the hotkey is usable.
func (h HotKey) Validate() error {
	if strings.TrimSpace(h.ShortCut) == "" {
		return fmt.Errorf("hotkey has no shortcut")
	}
	if strings.TrimSpace(h.Command) == "" {
		return fmt.Errorf("hotkey %q has no command", h.ShortCut)
	}
	return nil
}

// HotKeys represents the hotkeys configuration.
type HotKeys struct {
	HotKey map[string]HotKey `yaml:"hotKeys"`
	mx     sync.RWMutex
}

// NewHotKeys creates an empty HotKeys configuration.
func NewHotKeys() *HotKeys {
	return &HotKeys{
		HotKey: make(map[string]HotKey),
	}
}

// Load loads hotkeys from the default config file.
func (h *HotKeys) Load() error {
	return h.LoadFrom(AppHotkeysFile)
}

// LoadFrom loads hotkeys from a specific file path. Invalid entries are
// skipped and reported.
func (h *HotKeys) LoadFrom(path string) error {
	h.mx.Lock()
	defer h.mx.Unlock()

	h.HotKey = make(map[string]HotKey)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	var loaded struct {
		HotKey map[string]HotKey `yaml:"hotKeys"`
	}
	if err := data.LoadYAML(path, &loaded); err != nil {
		return err
	}

	var errs []string
	for name, hk := range loaded.HotKey {
		if err := hk.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		h.HotKey[name] = hk
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("invalid hotkeys: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Get returns a hotkey by name, or nil if not found.
func (h *HotKeys) Get(name string) *HotKey {
	h.mx.RLock()
	defer h.mx.RUnlock()

	hk, ok := h.HotKey[name]
	if !ok {
		return nil
	}

	return &hk
}

// Set sets a hotkey by name.
func (h *HotKeys) Set(name string, hk HotKey) {
	h.mx.Lock()
	defer h.mx.Unlock()

	h.HotKey[name] = hk
}

// Names returns all hotkey names.
func (h *HotKeys) Names() []string {
	h.mx.RLock()
	defer h.mx.RUnlock()

	names := make([]string, 0, len(h.HotKey))
	for name := range h.HotKey {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
