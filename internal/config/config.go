package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Output formats accepted by the CLI.
const (
	FormatRich  = "rich"
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// Config represents the speclinear CLI settings, read from .speclinear.yaml,
// SPECLINEAR_* environment variables and flags.
type Config struct {
	Linear  LinearConfig `mapstructure:"linear"`
	Output  OutputConfig `mapstructure:"output"`
	Verbose bool         `mapstructure:"verbose"`
}

// LinearConfig contains API access settings
type LinearConfig struct {
	Token       string `mapstructure:"token"`
	TokenSecret string `mapstructure:"token_secret"` // Secret Manager path holding the API key
	Endpoint    string `mapstructure:"endpoint"`
	Timeout     string `mapstructure:"timeout"`
	TeamID      string `mapstructure:"team_id"`
	TeamConfig  string `mapstructure:"team_config"` // linear-config.json/.yaml/.toml
	RateLimit   int    `mapstructure:"rate_limit"`  // requests per hour, 0 for none
}

// OutputConfig contains terminal rendering settings
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Width  int    `mapstructure:"width"`
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Linear.Timeout == "" {
		cfg.Linear.Timeout = "30s"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatRich
	}

	if cfg.Output.Width == 0 {
		cfg.Output.Width = 100
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validFormats := map[string]bool{FormatRich: true, FormatPlain: true, FormatJSON: true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s (must be rich, plain, or json)", c.Output.Format)
	}

	if c.Output.Width < 0 {
		return fmt.Errorf("invalid output width: %d", c.Output.Width)
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}

	if c.Linear.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %d", c.Linear.RateLimit)
	}

	if c.Linear.Token != "" && c.Linear.TokenSecret != "" {
		return fmt.Errorf("token and token_secret are mutually exclusive")
	}

	return nil
}

// TimeoutDuration parses Linear.Timeout
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Linear.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout: must be positive, got %s", c.Linear.Timeout)
	}
	return d, nil
}
