package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name string, cfg *Config) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshaling config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name         string
		global       *Config
		project      *Config
		wantListen   string
		wantDriver   string
		wantPath     string
		wantLevel    string
		wantShutdown int
	}{
		{
			name:         "no config files returns defaults",
			wantListen:   "127.0.0.1:8080",
			wantDriver:   "json",
			wantPath:     ".tasktracker/todos.json",
			wantLevel:    "info",
			wantShutdown: 10,
		},
		{
			name:         "global overrides defaults",
			global:       &Config{Store: StoreConfig{Driver: "sqlite", Path: "/var/lib/tasks.db"}},
			wantListen:   "127.0.0.1:8080",
			wantDriver:   "sqlite",
			wantPath:     "/var/lib/tasks.db",
			wantLevel:    "info",
			wantShutdown: 10,
		},
		{
			name:         "project overrides global",
			global:       &Config{Store: StoreConfig{Driver: "sqlite"}, Log: LogConfig{Level: "debug"}},
			project:      &Config{Store: StoreConfig{Driver: "json", Path: "local.json"}},
			wantListen:   "127.0.0.1:8080",
			wantDriver:   "json",
			wantPath:     "local.json",
			wantLevel:    "debug", // untouched by the project file
			wantShutdown: 10,
		},
		{
			name:         "zero values do not override",
			global:       &Config{Server: ServerConfig{Listen: "0.0.0.0:9000"}},
			project:      &Config{Server: ServerConfig{Listen: "", ShutdownTimeout: 0}},
			wantListen:   "0.0.0.0:9000",
			wantDriver:   "json",
			wantPath:     ".tasktracker/todos.json",
			wantLevel:    "info",
			wantShutdown: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.global != nil {
				globalPath = writeConfig(t, tmpDir, "global.json", tt.global)
			}
			projectPath := ""
			if tt.project != nil {
				projectPath = writeConfig(t, tmpDir, "project.json", tt.project)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.Server.Listen != tt.wantListen {
				t.Errorf("listen = %q, want %q", cfg.Server.Listen, tt.wantListen)
			}
			if cfg.Store.Driver != tt.wantDriver {
				t.Errorf("driver = %q, want %q", cfg.Store.Driver, tt.wantDriver)
			}
			if cfg.Store.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", cfg.Store.Path, tt.wantPath)
			}
			if cfg.Log.Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", cfg.Log.Level, tt.wantLevel)
			}
			if cfg.Server.ShutdownTimeout != tt.wantShutdown {
				t.Errorf("shutdownTimeout = %d, want %d", cfg.Server.ShutdownTimeout, tt.wantShutdown)
			}
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()

	globalPath := filepath.Join(tmpDir, "global.json")
	if err := os.WriteFile(globalPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	if _, err := Load(globalPath, ""); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if cfg.Store.Driver != "json" {
		t.Errorf("driver = %q, want default", cfg.Store.Driver)
	}
}

func TestRetryConfig(t *testing.T) {
	// Zero config falls back to the writer defaults.
	rc := SaveConfig{}.RetryConfig()
	if rc.InitialInterval != 100*time.Millisecond || rc.MaxInterval != 5*time.Second {
		t.Errorf("default retry = %+v", rc)
	}

	rc = SaveConfig{InitialIntervalMs: 10, MaxIntervalMs: 50, MaxElapsedMs: 200}.RetryConfig()
	if rc.InitialInterval != 10*time.Millisecond {
		t.Errorf("initial = %v, want 10ms", rc.InitialInterval)
	}
	if rc.MaxInterval != 50*time.Millisecond {
		t.Errorf("max = %v, want 50ms", rc.MaxInterval)
	}
	if rc.MaxElapsedTime != 200*time.Millisecond {
		t.Errorf("elapsed = %v, want 200ms", rc.MaxElapsedTime)
	}
	if rc.Multiplier != 2.0 {
		t.Errorf("multiplier = %v, want default preserved", rc.Multiplier)
	}
}
