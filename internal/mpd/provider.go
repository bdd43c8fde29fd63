package mpd

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"

	"github.com/skypro1111/airfoil-metadata-service/internal/capability"
)

// Config contains MPD provider configuration.
type Config struct {
	Address           string        // host:port of the MPD server
	Password          string        // optional
	ReconnectInterval time.Duration // minimum delay between dial attempts
	PingInterval      time.Duration // keepalive cadence
}

// Provider exposes an MPD server as a capability provider. One MPD
// connection is shared by every protocol session, guarded by the
// mutex; MPD's line protocol does not allow interleaved commands.
type Provider struct {
	config Config
	logger *slog.Logger

	client      *gompd.Client
	lastAttempt time.Time

	commandsIssued uint64
	commandErrors  uint64

	stopPing chan struct{}
	pingDone chan struct{}

	mu sync.Mutex
}

// NewProvider creates the provider and attempts an initial connection.
// An unreachable MPD is not fatal: the provider keeps answering
// "unavailable" and redials on demand.
func NewProvider(cfg Config, logger *slog.Logger) (*Provider, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("mpd address must not be empty")
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	p := &Provider{
		config:   cfg,
		logger:   logger,
		stopPing: make(chan struct{}),
		pingDone: make(chan struct{}),
	}

	p.mu.Lock()
	if _, err := p.ensureClient(); err != nil {
		logger.Warn("MPD not reachable at startup, will retry on demand",
			slog.String("address", cfg.Address),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("Connected to MPD", slog.String("address", cfg.Address))
	}
	p.mu.Unlock()

	go p.pingLoop()

	return p, nil
}

// Close stops the keepalive loop and closes the MPD connection.
func (p *Provider) Close() error {
	close(p.stopPing)
	<-p.pingDone

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// SupportsRemoteControl reports whether MPD is reachable.
func (p *Provider) SupportsRemoteControl() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.ensureClient()
	return err == nil
}

// HandleRemoteControl executes a playback action and reports success.
func (p *Provider) HandleRemoteControl(kind capability.RemoteControlKind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.command(func(c *gompd.Client) error {
		switch kind {
		case capability.PlayPause:
			status, err := c.Status()
			if err != nil {
				return err
			}
			return c.Pause(status["state"] == "play")
		case capability.NextTrack:
			return c.Next()
		case capability.PreviousTrack:
			return c.Previous()
		default:
			return fmt.Errorf("unsupported remote control kind %v", kind)
		}
	})

	if err != nil {
		p.logger.Warn("MPD remote control command failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// ProvidesMetadata reports whether MPD is reachable.
func (p *Provider) ProvidesMetadata() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.ensureClient()
	return err == nil
}

// Metadata returns the requested now-playing field, or "" when the
// field is absent or MPD is unavailable.
func (p *Provider) Metadata(kind capability.MetadataKind) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var value string
	err := p.command(func(c *gompd.Client) error {
		song, err := c.CurrentSong()
		if err != nil {
			return err
		}

		switch kind {
		case capability.TrackTitle:
			value = song["Title"]
		case capability.TrackArtist:
			value = song["Artist"]
		case capability.TrackAlbum:
			value = song["Album"]
		case capability.AlbumArt:
			uri := song["file"]
			if uri == "" {
				return nil
			}
			art, err := c.AlbumArt(uri)
			if err != nil {
				// Tracks without embedded or sidecar art are routine.
				p.logger.Debug("No album art available",
					slog.String("uri", uri),
					slog.String("error", err.Error()),
				)
				return nil
			}
			value = base64.StdEncoding.EncodeToString(art)
		}
		return nil
	})

	if err != nil {
		p.logger.Warn("MPD metadata request failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return value
}

// Stats reports lifetime command counters for the monitoring API.
type Stats struct {
	Connected      bool   `json:"connected"`
	CommandsIssued uint64 `json:"commands_issued"`
	CommandErrors  uint64 `json:"command_errors"`
}

// GetStats returns a snapshot of the provider's counters.
func (p *Provider) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Connected:      p.client != nil,
		CommandsIssued: p.commandsIssued,
		CommandErrors:  p.commandErrors,
	}
}

// command runs one MPD operation against a live client, invalidating
// the connection on failure so the next call redials. Caller must hold
// the mutex.
func (p *Provider) command(fn func(c *gompd.Client) error) error {
	c, err := p.ensureClient()
	if err != nil {
		return err
	}

	p.commandsIssued++
	if err := fn(c); err != nil {
		p.commandErrors++
		p.invalidateClient()
		return err
	}
	return nil
}

// ensureClient returns a live client, dialing at most once per
// reconnect interval. Caller must hold the mutex.
func (p *Provider) ensureClient() (*gompd.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	if since := time.Since(p.lastAttempt); since < p.config.ReconnectInterval {
		return nil, fmt.Errorf("mpd unavailable, next dial in %s", p.config.ReconnectInterval-since)
	}
	p.lastAttempt = time.Now()

	var (
		client *gompd.Client
		err    error
	)
	if p.config.Password != "" {
		client, err = gompd.DialAuthenticated("tcp", p.config.Address, p.config.Password)
	} else {
		client, err = gompd.Dial("tcp", p.config.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial mpd at %s: %w", p.config.Address, err)
	}

	p.logger.Info("Reconnected to MPD", slog.String("address", p.config.Address))
	p.client = client
	return client, nil
}

// invalidateClient drops a broken connection. Caller must hold the mutex.
func (p *Provider) invalidateClient() {
	if p.client == nil {
		return
	}
	_ = p.client.Close()
	p.client = nil
}

// pingLoop keeps the MPD connection alive; MPD drops idle clients.
func (p *Provider) pingLoop() {
	defer close(p.pingDone)

	ticker := time.NewTicker(p.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopPing:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.client != nil {
				if err := p.client.Ping(); err != nil {
					p.logger.Warn("MPD keepalive failed",
						slog.String("error", err.Error()),
					)
					p.invalidateClient()
				}
			}
			p.mu.Unlock()
		}
	}
}
