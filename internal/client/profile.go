package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"gopkg.in/ini.v1"
)

const (
	// DefaultProfile names the profile used when none is selected.
	DefaultProfile = "default"

	// DefaultEndpoint is the control plane address of a local install.
	DefaultEndpoint = "http://localhost:8003"

	// EnvProfile selects the active profile.
	EnvProfile = "IVS_PROFILE"

	// EnvToken overrides the active profile token.
	EnvToken = "IVS_TOKEN"
)

type ProfileSettings interface {
	CurrentProfileName() string
	ProfileNames() []string
	GetProfile(name string) (*Profile, error)
	SetActiveProfile(profile string) error
}

type Profile struct {
	Name     string
	Endpoint string
	Token    string
}

type ProfileManager struct {
	path          string
	profiles      map[string]*Profile
	activeProfile string
	mx            sync.RWMutex
}

// NewProfileManager loads API profiles from an INI credentials file.
// Each section is a profile carrying an endpoint and a token:
//
//	[prod]
//	endpoint = https://api.example.com
//	token    = ivs_...
//
// A missing file yields a single default profile pointing at a local install.
func NewProfileManager(path string) (*ProfileManager, error) {
	m := ProfileManager{
		path:     path,
		profiles: make(map[string]*Profile),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	if len(m.profiles) == 0 {
		m.profiles[DefaultProfile] = &Profile{Name: DefaultProfile, Endpoint: DefaultEndpoint}
	}

	m.activeProfile = DefaultProfile
	if p := os.Getenv(EnvProfile); p != "" {
		m.activeProfile = p
	}
	if _, ok := m.profiles[m.activeProfile]; !ok {
		names := m.names()
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, m.activeProfile)
		}
		m.activeProfile = names[0]
	}
	if tok := os.Getenv(EnvToken); tok != "" {
		m.profiles[m.activeProfile].Token = tok
	}

	return &m, nil
}

func (m *ProfileManager) load() error {
	if m.path == "" {
		return nil
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	f, err := ini.Load(m.path)
	if err != nil {
		return fmt.Errorf("failed to load credentials file: %w", err)
	}
	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}
		if name == ini.DefaultSection {
			name = DefaultProfile
		}
		m.profiles[name] = &Profile{
			Name:     name,
			Endpoint: section.Key("endpoint").MustString(DefaultEndpoint),
			Token:    section.Key("token").String(),
		}
	}

	return nil
}

// CurrentProfileName returns the active profile.
func (m *ProfileManager) CurrentProfileName() string {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.activeProfile
}

// ProfileNames returns the sorted profile names.
func (m *ProfileManager) ProfileNames() []string {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return m.names()
}

func (m *ProfileManager) names() []string {
	nn := make([]string, 0, len(m.profiles))
	for n := range m.profiles {
		nn = append(nn, n)
	}
	sort.Strings(nn)
	return nn
}

// GetProfile returns a copy of the named profile.
func (m *ProfileManager) GetProfile(name string) (*Profile, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, name)
	}
	cp := *p
	return &cp, nil
}

// SetActiveProfile selects the profile used by subsequent calls.
func (m *ProfileManager) SetActiveProfile(profile string) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if _, ok := m.profiles[profile]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}
	m.activeProfile = profile
	return nil
}
