package config

import "time"

// AIConfig configures the AI gateway used for identification and health analysis.
type AIConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// GetTimeout returns the AI request timeout as a duration.
func (c AIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 90*time.Second)
}
