package config

import "time"

// BackendConfig configures the remote REST backend that persists records.
type BackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	Timeout          string `yaml:"timeout"`
	GuestTokenHeader string `yaml:"guest_token_header"`
}

// GetTimeout returns the backend HTTP timeout as a duration.
func (c BackendConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 20*time.Second)
}
