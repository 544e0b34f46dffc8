package config

import (
	"maps"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"
	"github.com/inventiv/ivs/internal/config/data"
)

// minSuggestScore is the lowest similarity offered as a suggestion.
const minSuggestScore = 0.7

// Aliases represents the alias configuration.
type Aliases struct {
	Alias map[string]string `yaml:"aliases"`
	mx    sync.RWMutex
}

// DefaultAliases are the built-in command shortcuts.
var DefaultAliases = map[string]string{
	"instances": "compute/instances",
	"instance":  "compute/instances",
	"inst":      "compute/instances",
	"i":         "compute/instances",

	"users": "iam/users",
	"user":  "iam/users",
	"u":     "iam/users",

	"actions": "audit/actions",
	"action":  "audit/actions",
	"logs":    "audit/actions",
	"al":      "audit/actions",

	"archive": "archive/traces",
	"traces":  "archive/traces",
	"ar":      "archive/traces",

	// k9s compatibility
	"ctx": "profile",
}

// NewAliases creates an Aliases with default aliases loaded.
func NewAliases() *Aliases {
	return &Aliases{
		Alias: maps.Clone(DefaultAliases),
	}
}

// Load loads aliases from the default config file.
// Merges with default aliases, with file aliases taking precedence.
func (a *Aliases) Load() error {
	return a.LoadFrom(AppAliasesFile)
}

// LoadFrom loads aliases from a specific file path.
func (a *Aliases) LoadFrom(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded struct {
		Alias map[string]string `yaml:"aliases"`
	}
	if err := data.LoadYAML(path, &loaded); err != nil {
		return err
	}

	a.mx.Lock()
	defer a.mx.Unlock()
	for k, v := range loaded.Alias {
		a.Alias[strings.ToLower(k)] = v
	}

	return nil
}

// SaveTo saves aliases to a specific file path.
func (a *Aliases) SaveTo(path string) error {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return data.SaveYAML(path, map[string]any{"aliases": a.Alias})
}

// Get returns the resource for an alias, or the original if not found.
func (a *Aliases) Get(alias string) string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if resource, ok := a.Alias[strings.ToLower(alias)]; ok {
		return resource
	}
	return alias
}

// Resolve returns the resource an alias points to.
func (a *Aliases) Resolve(alias string) (string, bool) {
	a.mx.RLock()
	defer a.mx.RUnlock()

	r, ok := a.Alias[strings.ToLower(alias)]
	return r, ok
}

// Set sets an alias.
func (a *Aliases) Set(alias, resource string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.Alias[strings.ToLower(alias)] = resource
}

// Delete removes an alias.
func (a *Aliases) Delete(alias string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	delete(a.Alias, alias)
}

// All returns a copy of all aliases.
func (a *Aliases) All() map[string]string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return maps.Clone(a.Alias)
}

// Names returns the known aliases sorted.
func (a *Aliases) Names() []string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return slices.Sorted(maps.Keys(a.Alias))
}

// Suggest returns up to n aliases resembling cmd, best match first.
func (a *Aliases) Suggest(cmd string, n int) []string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if cmd == "" || n <= 0 {
		return nil
	}

	type scored struct {
		name  string
		score float32
	}
	var ss []scored
	for _, name := range a.Names() {
		score, err := edlib.StringsSimilarity(cmd, name, edlib.JaroWinkler)
		if err != nil || score < minSuggestScore {
			continue
		}
		ss = append(ss, scored{name: name, score: score})
	}
	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].score > ss[j].score
	})

	out := make([]string, 0, min(n, len(ss)))
	for _, s := range ss[:min(n, len(ss))] {
		out = append(out, s.name)
	}

	return out
}
