package config

import (
	"time"

	"github.com/aristath/tasktracker/internal/persistence"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Listen          string `json:"listen"`          // host:port the API binds to
	ShutdownTimeout int    `json:"shutdownTimeout"` // graceful shutdown budget in seconds
}

// StoreConfig selects and locates the snapshot store.
type StoreConfig struct {
	Driver string `json:"driver"` // "json" or "sqlite"
	Path   string `json:"path"`   // snapshot file or database path
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json, logfmt
}

// EventsConfig sizes event bus subscriptions.
type EventsConfig struct {
	BufferSize int `json:"bufferSize"`
}

// SaveConfig tunes the snapshot writer's retry behavior. All intervals
// are milliseconds; zero values fall back to the writer defaults.
type SaveConfig struct {
	InitialIntervalMs int `json:"initialIntervalMs"`
	MaxIntervalMs     int `json:"maxIntervalMs"`
	MaxElapsedMs      int `json:"maxElapsedMs"`
}

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig `json:"server"`
	Store  StoreConfig  `json:"store"`
	Log    LogConfig    `json:"log"`
	Events EventsConfig `json:"events"`
	Save   SaveConfig   `json:"save"`
}

// RetryConfig converts the save settings into the writer's retry config,
// filling unset fields from the defaults.
func (s SaveConfig) RetryConfig() persistence.RetryConfig {
	rc := persistence.DefaultRetryConfig()
	if s.InitialIntervalMs > 0 {
		rc.InitialInterval = time.Duration(s.InitialIntervalMs) * time.Millisecond
	}
	if s.MaxIntervalMs > 0 {
		rc.MaxInterval = time.Duration(s.MaxIntervalMs) * time.Millisecond
	}
	if s.MaxElapsedMs > 0 {
		rc.MaxElapsedTime = time.Duration(s.MaxElapsedMs) * time.Millisecond
	}
	return rc
}
