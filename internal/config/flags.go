package config

import "github.com/inventiv/ivs/internal/config/data"

const (
	// DefaultRefreshRate is the reload period of the views, in seconds.
	DefaultRefreshRate = 5.0

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// NewFlags returns the command line flags preset to their defaults.
func NewFlags() *data.Flags {
	f := data.NewFlags()
	*f.RefreshRate = DefaultRefreshRate
	*f.LogLevel = DefaultLogLevel
	*f.LogFile = AppLogFile

	return f
}

// IsBoolSet returns true if a bool flag was given and is true.
func IsBoolSet(b *bool) bool {
	return b != nil && *b
}

// IsStringSet returns true if a string flag was given a value.
func IsStringSet(s *string) bool {
	return s != nil && *s != ""
}
