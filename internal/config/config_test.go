package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	valid := Default()

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "default configuration is valid",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Server.Port = 0 },
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name:        "empty bind address",
			mutate:      func(c *Config) { c.Server.BindAddress = "" },
			expectError: true,
			errorMsg:    "bind_address cannot be empty",
		},
		{
			name:        "read buffer too small",
			mutate:      func(c *Config) { c.Server.ReadBufferSize = 16 },
			expectError: true,
			errorMsg:    "read_buffer_size",
		},
		{
			name:        "zero write queue",
			mutate:      func(c *Config) { c.Server.WriteQueueSize = 0 },
			expectError: true,
			errorMsg:    "write_queue_size",
		},
		{
			name: "http enabled without address",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.Address = ""
			},
			expectError: true,
			errorMsg:    "http address cannot be empty",
		},
		{
			name:        "http disabled skips http validation",
			mutate:      func(c *Config) { c.HTTP = HTTPConfig{Enabled: false} },
			expectError: false,
		},
		{
			name:        "unknown player backend",
			mutate:      func(c *Config) { c.Player.Backend = "spotify" },
			expectError: true,
			errorMsg:    "backend must be",
		},
		{
			name: "mpd backend requires address",
			mutate: func(c *Config) {
				c.Player.Backend = BackendMPD
				c.Player.MPD.Address = ""
			},
			expectError: true,
			errorMsg:    "mpd address cannot be empty",
		},
		{
			name: "static backend needs no fields",
			mutate: func(c *Config) {
				c.Player.Backend = BackendStatic
				c.Player.Static = StaticConfig{}
			},
			expectError: false,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected a validation error, got none")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 9999
  bind_address: "127.0.0.1"
http:
  enabled: true
  port: 9090
  address: "127.0.0.1"
player:
  backend: static
  static:
    remote_control: true
    title: "Test Title"
    artist: "Test Artist"
logging:
  level: debug
  format: json
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, expected 9999", cfg.Server.Port)
	}
	if cfg.Player.Backend != BackendStatic {
		t.Errorf("Player.Backend = %q, expected static", cfg.Player.Backend)
	}
	if cfg.Player.Static.Title != "Test Title" {
		t.Errorf("Static.Title = %q", cfg.Player.Static.Title)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Server.ReadBufferSize != Default().Server.ReadBufferSize {
		t.Errorf("ReadBufferSize = %d, expected default %d",
			cfg.Server.ReadBufferSize, Default().Server.ReadBufferSize)
	}
	if !cfg.Protocol.CloseOnProtocolError {
		t.Error("Expected close_on_protocol_error to default to true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected an error for a missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected a parse error")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -1\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected a validation error")
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := Default()

	if got := cfg.Server.GetWriteTimeout(); got != time.Duration(cfg.Server.WriteTimeout)*time.Second {
		t.Errorf("GetWriteTimeout = %v", got)
	}
	if got := cfg.Player.MPD.GetReconnectInterval(); got != 5*time.Second {
		t.Errorf("GetReconnectInterval = %v", got)
	}
	if got := cfg.Player.MPD.GetPingInterval(); got != 30*time.Second {
		t.Errorf("GetPingInterval = %v", got)
	}
}
