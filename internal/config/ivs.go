package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/inventiv/ivs/internal/config/data"
)

// Default values
const (
	DefaultAPITimeout = 15 * time.Second
	DefaultView       = data.DefaultView
)

// Ivs represents the ivs global configuration.
type Ivs struct {
	RefreshRate    float32      `yaml:"refreshRate"`
	APITimeout     string       `yaml:"apiTimeout"`
	ReadOnly       bool         `yaml:"readOnly"`
	DefaultView    string       `yaml:"defaultView"`
	DefaultProfile string       `yaml:"defaultProfile"`
	Endpoint       string       `yaml:"endpoint,omitempty"`
	UI             data.UI      `yaml:"ui"`
	Logger         data.Logger  `yaml:"logger"`
	List           data.List    `yaml:"list"`
	API            data.API     `yaml:"api"`
	Archive        data.Archive `yaml:"archive"`

	activeProfile string
	activeConfig  *data.ProfileContext
	dir           *data.Dir
	mx            sync.RWMutex
}

// NewIvs creates an Ivs with default settings.
func NewIvs() *Ivs {
	return &Ivs{
		RefreshRate: DefaultRefreshRate,
		APITimeout:  DefaultAPITimeout.String(),
		DefaultView: DefaultView,
		Logger:      data.Logger{Level: DefaultLogLevel},
		List: data.List{
			PageSize: data.DefaultPageSize,
			Overscan: data.DefaultOverscan,
		},
		dir: data.NewDir(AppProfilesDir),
	}
}

// Validate ensures Ivs has valid settings.
func (a *Ivs) Validate() {
	a.mx.Lock()
	defer a.mx.Unlock()

	if a.RefreshRate <= 0 {
		a.RefreshRate = DefaultRefreshRate
	}
	if _, err := time.ParseDuration(a.APITimeout); err != nil {
		a.APITimeout = DefaultAPITimeout.String()
	}
	if a.DefaultView == "" {
		a.DefaultView = DefaultView
	}
	if a.Logger.Level == "" {
		a.Logger.Level = DefaultLogLevel
	}

	switch {
	case a.List.PageSize <= 0:
		a.List.PageSize = data.DefaultPageSize
	case a.List.PageSize > data.MaxPageSize:
		a.List.PageSize = data.MaxPageSize
	}
	if a.List.Overscan < 0 {
		a.List.Overscan = 0
	}
	if a.List.MaxCachedPages < 0 {
		a.List.MaxCachedPages = 0
	}
	if a.API.MaxInFlight < 0 {
		a.API.MaxInFlight = 0
	}
	if a.API.RequestsPerSecond < 0 {
		a.API.RequestsPerSecond = 0
	}
}

// ActiveProfile returns the currently active API profile.
func (a *Ivs) ActiveProfile() string {
	a.mx.RLock()
	defer a.mx.RUnlock()
	return a.activeProfile
}

// ActiveConfig returns the state of the active profile, nil before a
// profile is activated.
func (a *Ivs) ActiveConfig() *data.ProfileContext {
	a.mx.RLock()
	defer a.mx.RUnlock()
	return a.activeConfig
}

// ActivateProfile activates a profile and loads its config.
func (a *Ivs) ActivateProfile(profile string) (*data.ProfileContext, error) {
	if profile == "" {
		return nil, fmt.Errorf("profile cannot be empty")
	}

	a.mx.Lock()
	defer a.mx.Unlock()

	if a.dir == nil {
		a.dir = data.NewDir(AppProfilesDir)
	}
	cfg, err := a.dir.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for profile %q: %w", profile, err)
	}
	a.activeProfile = profile
	a.activeConfig = cfg

	return cfg, nil
}

// SaveActive persists the active profile config.
func (a *Ivs) SaveActive() error {
	a.mx.RLock()
	dir, cfg := a.dir, a.activeConfig
	a.mx.RUnlock()

	if dir == nil || cfg == nil || dir.Root() == "" {
		return nil
	}
	return dir.Save(cfg)
}

// SetProfilesDir relocates the per profile configs.
func (a *Ivs) SetProfilesDir(root string) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.dir = data.NewDir(root)
}

// Override applies CLI flag overrides to the configuration.
func (a *Ivs) Override(flags *data.Flags) {
	if flags == nil {
		return
	}

	a.mx.Lock()
	defer a.mx.Unlock()

	if flags.RefreshRate != nil && *flags.RefreshRate > 0 {
		a.RefreshRate = *flags.RefreshRate
	}
	if IsBoolSet(flags.ReadOnly) {
		a.ReadOnly = true
	}
	if IsBoolSet(flags.Write) {
		a.ReadOnly = false
	}
	if IsStringSet(flags.Profile) {
		a.DefaultProfile = *flags.Profile
	}
	if IsStringSet(flags.Endpoint) {
		a.Endpoint = *flags.Endpoint
	}
	if IsBoolSet(flags.Headless) {
		a.UI.Headless = true
	}
	if IsStringSet(flags.LogLevel) {
		a.Logger.Level = *flags.LogLevel
	}
}

// GetAPITimeout returns the parsed API timeout duration.
func (a *Ivs) GetAPITimeout() (time.Duration, error) {
	a.mx.RLock()
	timeoutStr := a.APITimeout
	a.mx.RUnlock()

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid API timeout %q: %w", timeoutStr, err)
	}

	return timeout, nil
}

// GetRefreshRate returns the refresh rate as a duration.
func (a *Ivs) GetRefreshRate() time.Duration {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return time.Duration(float64(a.RefreshRate) * float64(time.Second))
}

// IsReadOnly returns true when mutations are disabled, globally or for the
// active profile.
func (a *Ivs) IsReadOnly() bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if a.ReadOnly {
		return true
	}
	if a.activeConfig != nil {
		return a.activeConfig.IsReadOnly()
	}
	return false
}
