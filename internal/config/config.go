// Package config loads and saves the calassist YAML configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceGoogle = "google"
	SourceICS    = "ics"
)

// CalendarConfig selects where events come from.
type CalendarConfig struct {
	// Source is "google" (Calendar v3 API) or "ics" (subscription feed).
	Source string `yaml:"source"`
	// URL overrides the Google endpoint, or is the feed URL for "ics".
	URL string `yaml:"url,omitempty"`
	// AccessToken is a Google OAuth access token obtained out of band.
	// GOOGLE_ACCESS_TOKEN takes precedence.
	AccessToken string `yaml:"google_access_token,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// APIKey is the chat-completion credential. OPENROUTER_API_KEY takes precedence.
	APIKey      string        `yaml:"api_key,omitempty"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	// Session names the conversation the chat commands read and append to.
	Session string `yaml:"session"`

	// Timezone is the IANA zone all-day events are anchored to. Empty means local.
	Timezone string `yaml:"timezone,omitempty"`

	// Refresh is a cron expression for `calassist watch`.
	Refresh string `yaml:"refresh"`

	Calendar CalendarConfig `yaml:"calendar"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "https://openrouter.ai/api/v1/chat/completions",
		Model:       "deepseek-ai/deepseek-r1",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     30 * time.Second,
		Session:     "default",
		Refresh:     "*/15 * * * *",
		Calendar:    CalendarConfig{Source: SourceGoogle},
	}
}

// Normalize fills in zero values and clamps out-of-range ones.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Temperature < 0 {
		c.Temperature = 0
	}
	if c.Temperature > 2 {
		c.Temperature = 2
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Session == "" {
		c.Session = d.Session
	}
	if c.Refresh == "" {
		c.Refresh = d.Refresh
	}
	switch c.Calendar.Source {
	case SourceGoogle, SourceICS:
	default:
		c.Calendar.Source = SourceGoogle
	}
}

// ApplyEnv overlays secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("GOOGLE_ACCESS_TOKEN"); v != "" {
		c.Calendar.AccessToken = v
	}
	if v := os.Getenv("CALASSIST_MODEL"); v != "" {
		c.Model = v
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML file at path. If the file does not exist a default
// config is written there with 0600 permissions and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Keys absent from the file keep their defaults.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calassist-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
