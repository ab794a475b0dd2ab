package config

// StorageConfig configures on-device persistence.
// An empty DatabasePath or ":memory:" keeps everything in process memory.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SessionConfig points at the session file written by the host's auth layer.
type SessionConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"` // follow external sign-in/out while running
}
