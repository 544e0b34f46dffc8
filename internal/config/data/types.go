// Package data provides configuration data types for the ivs application.
package data

// Flags represents CLI command-line flags for the ivs application.
type Flags struct {
	RefreshRate *float32 // Refresh rate in seconds
	LogLevel    *string  // Log level (e.g., debug, info, warn, error)
	LogFile     *string  // Path to log file
	Headless    *bool    // Run without the crumbs and menu chrome
	Command     *string  // Command to execute
	ReadOnly    *bool    // Run in read-only mode
	Write       *bool    // Enable write operations
	Profile     *string  // API profile to use
	Endpoint    *string  // Control plane endpoint override
}

// UI represents user interface configuration settings.
type UI struct {
	EnableMouse bool `yaml:"enableMouse"`
	Headless    bool `yaml:"headless"`
	Logoless    bool `yaml:"logoless"`
	Crumbsless  bool `yaml:"crumbsless"`
	NoIcons     bool `yaml:"noIcons"`
}

// Logger represents logging configuration settings.
type Logger struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// List tunes the virtual list engine.
type List struct {
	PageSize       int `yaml:"pageSize"`
	Overscan       int `yaml:"overscan"`
	MaxCachedPages int `yaml:"maxCachedPages"`
}

// API tunes the control plane transport.
type API struct {
	MaxInFlight       int     `yaml:"maxInFlight"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// Archive locates archived traces in S3.
type Archive struct {
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"awsProfile"`
}

// Enabled returns true when a bucket is configured.
func (a Archive) Enabled() bool {
	return a.Bucket != ""
}

// List configuration constants.
const (
	DefaultPageSize = 200
	MaxPageSize     = 500
	DefaultOverscan = 10
)

// NewFlags creates a new Flags instance with all pointer fields initialized.
// All pointers are allocated but their values are not set.
func NewFlags() *Flags {
	return &Flags{
		RefreshRate: new(float32),
		LogLevel:    new(string),
		LogFile:     new(string),
		Headless:    new(bool),
		Command:     new(string),
		ReadOnly:    new(bool),
		Write:       new(bool),
		Profile:     new(string),
		Endpoint:    new(string),
	}
}
