package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Player backends selectable via player.backend.
const (
	BackendMPD    = "mpd"
	BackendStatic = "static"
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Player   PlayerConfig   `yaml:"player"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains TCP listener configuration.
type ServerConfig struct {
	Port           int    `yaml:"port"`
	BindAddress    string `yaml:"bind_address"`
	ReadBufferSize int    `yaml:"read_buffer_size"` // bytes
	WriteQueueSize int    `yaml:"write_queue_size"` // responses per connection
	WriteTimeout   int    `yaml:"write_timeout"`    // seconds
}

// HTTPConfig contains monitoring API server configuration.
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// PlayerConfig selects and configures the capability provider.
type PlayerConfig struct {
	Backend string       `yaml:"backend"` // "mpd" or "static"
	MPD     MPDConfig    `yaml:"mpd"`
	Static  StaticConfig `yaml:"static"`
}

// MPDConfig contains MPD backend configuration.
type MPDConfig struct {
	Address           string `yaml:"address"`
	Password          string `yaml:"password"`
	ReconnectInterval int    `yaml:"reconnect_interval"` // seconds
	PingInterval      int    `yaml:"ping_interval"`      // seconds
}

// StaticConfig contains static backend configuration.
type StaticConfig struct {
	RemoteControl bool   `yaml:"remote_control"`
	Title         string `yaml:"title"`
	Artist        string `yaml:"artist"`
	Album         string `yaml:"album"`
	ArtworkPath   string `yaml:"artwork_path"`
}

// ProtocolConfig contains protocol engine policy.
type ProtocolConfig struct {
	// CloseOnProtocolError tears down a connection whose byte stream
	// produced a framing error. After a malformed length prefix the
	// stream cannot realign on message boundaries.
	CloseOnProtocolError bool `yaml:"close_on_protocol_error"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when a field is absent from
// the config file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           7766,
			BindAddress:    "0.0.0.0",
			ReadBufferSize: 4096,
			WriteQueueSize: 64,
			WriteTimeout:   10,
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
			Enabled: false,
		},
		Player: PlayerConfig{
			Backend: BackendMPD,
			MPD: MPDConfig{
				Address:           "127.0.0.1:6600",
				ReconnectInterval: 5,
				PingInterval:      30,
			},
		},
		Protocol: ProtocolConfig{
			CloseOnProtocolError: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file. Absent fields keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs validation of the full configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Player.Validate(); err != nil {
		return fmt.Errorf("player config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates TCP listener configuration.
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.ReadBufferSize < 256 {
		return fmt.Errorf("read_buffer_size must be at least 256 bytes, got %d", s.ReadBufferSize)
	}

	if s.WriteQueueSize < 1 {
		return fmt.Errorf("write_queue_size must be at least 1, got %d", s.WriteQueueSize)
	}

	if s.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", s.WriteTimeout)
	}

	return nil
}

// Validate validates HTTP configuration.
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates the player backend selection.
func (p *PlayerConfig) Validate() error {
	switch p.Backend {
	case BackendMPD:
		if p.MPD.Address == "" {
			return fmt.Errorf("mpd address cannot be empty")
		}
		if p.MPD.ReconnectInterval < 1 {
			return fmt.Errorf("mpd reconnect_interval must be at least 1 second, got %d", p.MPD.ReconnectInterval)
		}
		if p.MPD.PingInterval < 1 {
			return fmt.Errorf("mpd ping_interval must be at least 1 second, got %d", p.MPD.PingInterval)
		}
	case BackendStatic:
		// Every static field is optional.
	default:
		return fmt.Errorf("backend must be '%s' or '%s', got '%s'", BackendMPD, BackendStatic, p.Backend)
	}

	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetWriteTimeout returns the write timeout as a time.Duration.
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetReconnectInterval returns the MPD reconnect interval as a time.Duration.
func (m *MPDConfig) GetReconnectInterval() time.Duration {
	return time.Duration(m.ReconnectInterval) * time.Second
}

// GetPingInterval returns the MPD keepalive interval as a time.Duration.
func (m *MPDConfig) GetPingInterval() time.Duration {
	return time.Duration(m.PingInterval) * time.Second
}
