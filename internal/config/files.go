package config

import (
	"os"
	"path/filepath"
)

const (
	AppName = "ivs"

	// EnvConfigDir overrides the config, data and state roots at once.
	EnvConfigDir = "IVS_CONFIG_DIR"
)

// Application locations. Set by InitLocs.
var (
	AppConfigFile      string
	AppHotkeysFile     string
	AppAliasesFile     string
	AppCredentialsFile string
	AppProfilesDir     string
	AppLogFile         string
)

// InitLocs resolves and creates the application directories, honoring
// IVS_CONFIG_DIR first and the XDG base directories otherwise.
func InitLocs() error {
	cfg, data, state, err := baseDirs()
	if err != nil {
		return err
	}

	AppConfigFile = filepath.Join(cfg, AppName+".yaml")
	AppHotkeysFile = filepath.Join(cfg, "hotkeys.yaml")
	AppAliasesFile = filepath.Join(cfg, "aliases.yaml")
	AppCredentialsFile = filepath.Join(cfg, "credentials")
	AppProfilesDir = filepath.Join(data, "profiles")
	AppLogFile = filepath.Join(state, AppName+".log")

	for _, dir := range []string{cfg, data, state, AppProfilesDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

func baseDirs() (cfg, data, state string, err error) {
	if root := os.Getenv(EnvConfigDir); root != "" {
		return root, root, root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", "", err
	}

	return xdgDir("XDG_CONFIG_HOME", home, ".config"),
		xdgDir("XDG_DATA_HOME", home, ".local", "share"),
		xdgDir("XDG_STATE_HOME", home, ".local", "state"),
		nil
}

func xdgDir(env, home string, fallback ...string) string {
	base := os.Getenv(env)
	if base == "" {
		base = filepath.Join(append([]string{home}, fallback...)...)
	}

	return filepath.Join(base, AppName)
}

// InitLogLoc ensures the directory holding the log file exists.
func InitLogLoc(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
