package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/config/data"
)

// Config is the root configuration for the application.
type Config struct {
	Ivs      *Ivs `yaml:"ivs"`
	conn     client.Connection
	settings client.ProfileSettings
	path     string
	mx       sync.RWMutex
}

// NewConfig creates a new Config with the given profile settings.
func NewConfig(settings client.ProfileSettings) *Config {
	return &Config{
		Ivs:      NewIvs(),
		settings: settings,
	}
}

// Path returns the file the config was last loaded from.
func (c *Config) Path() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.path
}

// Load loads the configuration from the given path.
// If the file doesn't exist, the current config is kept.
func (c *Config) Load(path string, force bool) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.path = path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !force {
			return nil
		}
		return fmt.Errorf("config file does not exist: %s", path)
	}

	loaded := Config{Ivs: NewIvs()}
	if err := data.LoadYAML(path, &loaded); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if loaded.Ivs == nil {
		loaded.Ivs = NewIvs()
	}
	loaded.Ivs.Validate()
	if c.Ivs != nil {
		c.Ivs.mx.RLock()
		loaded.Ivs.activeProfile, loaded.Ivs.activeConfig, loaded.Ivs.dir = c.Ivs.activeProfile, c.Ivs.activeConfig, c.Ivs.dir
		c.Ivs.mx.RUnlock()
	}
	c.Ivs = loaded.Ivs

	return nil
}

// Save saves the configuration to the given path.
// If force is false, only saves if the file already exists.
func (c *Config) Save(path string, force bool) error {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if path == "" {
		return fmt.Errorf("no config file path configured")
	}
	if _, err := os.Stat(path); err != nil && !force {
		return nil
	}
	if err := data.SaveYAML(path, c); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", path, err)
	}

	return nil
}

// Refine applies CLI flags and API profiles to determine the final
// configuration. Profile precedence: CLI --profile > config defaultProfile >
// IVS_PROFILE or the credentials default.
func (c *Config) Refine(flags *data.Flags, settings client.ProfileSettings) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.Ivs == nil {
		return fmt.Errorf("config.Ivs is nil")
	}
	if settings == nil {
		return fmt.Errorf("no profile settings")
	}
	c.settings = settings

	var profile string
	switch {
	case flags != nil && IsStringSet(flags.Profile):
		profile = *flags.Profile
	case c.Ivs.DefaultProfile != "":
		profile = c.Ivs.DefaultProfile
	default:
		profile = settings.CurrentProfileName()
	}
	if _, err := settings.GetProfile(profile); err != nil {
		return fmt.Errorf("profile %q not found: %w", profile, err)
	}
	if _, err := c.Ivs.ActivateProfile(profile); err != nil {
		return fmt.Errorf("failed to activate profile %q: %w", profile, err)
	}
	if flags != nil {
		c.Ivs.Override(flags)
	}

	return nil
}

// ClientConfig derives the control plane client settings.
func (c *Config) ClientConfig() (*client.ClientConfig, error) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	timeout, err := c.Ivs.GetAPITimeout()
	if err != nil {
		return nil, err
	}
	return &client.ClientConfig{
		Profile:           c.Ivs.ActiveProfile(),
		Endpoint:          c.Ivs.Endpoint,
		Timeout:           timeout,
		MaxInFlight:       c.Ivs.API.MaxInFlight,
		RequestsPerSecond: c.Ivs.API.RequestsPerSecond,
	}, nil
}

// Connection returns the control plane connection.
func (c *Config) Connection() client.Connection {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.conn
}

// SetConnection sets the control plane connection.
func (c *Config) SetConnection(conn client.Connection) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.conn = conn
}

// Settings returns the API profile settings.
func (c *Config) Settings() client.ProfileSettings {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.settings
}
