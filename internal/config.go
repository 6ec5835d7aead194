package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Override store drivers.
const (
	OverrideDriverFile   = "file"
	OverrideDriverSQLite = "sqlite"
)

// Duration wraps time.Duration so YAML values like "90s" or "2m" decode.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Dataset   DatasetConfig     `yaml:"dataset"`
	Overrides OverridesConfig   `yaml:"overrides"`
	Probe     ProbeConfig       `yaml:"probe"`
	Refresh   RefreshConfig     `yaml:"refresh"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Dataset.Validate(); err != nil {
		return err
	}
	if err := c.Overrides.Validate(); err != nil {
		return err
	}
	if err := c.Probe.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DatasetConfig holds the path to the compliance dataset directory.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the dataset configuration.
func (c *DatasetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OverridesConfig holds link override persistence configuration.
//
// Driver selects the backend:
//   - "file" (default): a single JSON file, editable by hand and watched
//     for external changes.
//   - "sqlite": a SQLite database; Path is the database file.
type OverridesConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the overrides configuration.
func (c *OverridesConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = OverrideDriverFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(OverrideDriverFile, OverrideDriverSQLite)),
		validation.Field(&c.Path, validation.Required),
	)
}

// ProbeConfig controls link reachability probing.
type ProbeConfig struct {
	Timeout     Duration `yaml:"timeout"`
	Concurrency int      `yaml:"concurrency"`
	UserAgent   string   `yaml:"user_agent"`
}

// Validate validates the probe configuration.
func (c *ProbeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(64)),
	)
}

// RefreshConfig controls the refresh cycle.
type RefreshConfig struct {
	// BackgroundDelay is how long after the foreground phase the background
	// sweep of off-screen countries starts.
	BackgroundDelay Duration `yaml:"background_delay"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Dataset: DatasetConfig{
			Path: "./dataset",
		},
		Overrides: OverridesConfig{
			Driver: OverrideDriverFile,
			Path:   "./overrides.json",
		},
		Probe: ProbeConfig{
			Timeout:     Duration(10 * time.Second),
			Concurrency: 8,
			UserAgent:   "raido-linkcheck/1.0",
		},
		Refresh: RefreshConfig{
			BackgroundDelay: Duration(90 * time.Second),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
