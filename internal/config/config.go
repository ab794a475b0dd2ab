package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all plantkeeper configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// AI gateway (plant identification / health analysis)
	AI AIConfig `yaml:"ai"`

	// Remote persistence backend
	Backend BackendConfig `yaml:"backend"`

	// Local cache and secure storage
	Storage StorageConfig `yaml:"storage"`

	// Session consumption (token is produced by the host's auth layer)
	Session SessionConfig `yaml:"session"`

	Logging LoggingConfig `yaml:"logging"`
}

// envOverrides lists the environment variables that take precedence over the file.
type envOverrides struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	AIModel      string `env:"PLANTKEEPER_AI_MODEL"`
	BackendURL   string `env:"PLANTKEEPER_BACKEND_URL"`
	DatabasePath string `env:"PLANTKEEPER_DB"`
	SessionFile  string `env:"PLANTKEEPER_SESSION_FILE"`
	LogLevel     string `env:"PLANTKEEPER_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "plantkeeper",
		Version: "0.4.0",

		AI: AIConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Timeout:  "90s",
		},

		Backend: BackendConfig{
			BaseURL:          "http://localhost:8787/api",
			Timeout:          "20s",
			GuestTokenHeader: "X-Guest-Token",
		},

		Storage: StorageConfig{
			DatabasePath: "data/plantkeeper.db",
		},

		Session: SessionConfig{
			File: "data/session.json",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.GeminiAPIKey != "" {
		c.AI.APIKey = o.GeminiAPIKey
		c.AI.Provider = "gemini"
	}
	if o.AIModel != "" {
		c.AI.Model = o.AIModel
	}
	if o.BackendURL != "" {
		c.Backend.BaseURL = o.BackendURL
	}
	if o.DatabasePath != "" {
		c.Storage.DatabasePath = o.DatabasePath
	}
	if o.SessionFile != "" {
		c.Session.File = o.SessionFile
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	return nil
}

// ValidProviders lists all supported AI providers.
var ValidProviders = []string{"gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key not configured (set GEMINI_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.AI.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid AI provider: %s (valid: %v)", c.AI.Provider, ValidProviders)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url not configured")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database_path not configured")
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
