package config

// DefaultConfig returns the compiled-in configuration. Everything runs
// locally out of a .tasktracker directory next to the working tree.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          "127.0.0.1:8080",
			ShutdownTimeout: 10,
		},
		Store: StoreConfig{
			Driver: "json",
			Path:   ".tasktracker/todos.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Events: EventsConfig{
			BufferSize: 256,
		},
		Save: SaveConfig{},
	}
}
