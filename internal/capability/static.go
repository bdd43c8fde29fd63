package capability

import (
	"encoding/base64"
	"log/slog"
	"os"
	"sync"
)

// StaticConfig contains the fixed answers a Static provider serves.
type StaticConfig struct {
	RemoteControl bool
	Title         string
	Artist        string
	Album         string
	ArtworkPath   string // optional image file served as album art
}

// Static is a provider with fixed answers, used for development and
// for deployments that only want to announce a station name.
type Static struct {
	config StaticConfig
	logger *slog.Logger

	artOnce sync.Once
	art     string
}

// NewStatic creates a provider serving the configured values.
func NewStatic(cfg StaticConfig, logger *slog.Logger) *Static {
	return &Static{config: cfg, logger: logger}
}

// SupportsRemoteControl reports whether remote control is enabled.
func (s *Static) SupportsRemoteControl() bool {
	return s.config.RemoteControl
}

// HandleRemoteControl accepts the action without side effects. It
// reports success so the peer keeps its transport controls enabled.
func (s *Static) HandleRemoteControl(kind RemoteControlKind) bool {
	if !s.config.RemoteControl {
		return false
	}

	s.logger.Info("Remote control action received",
		slog.String("kind", kind.String()),
	)
	return true
}

// ProvidesMetadata always reports true for a static provider.
func (s *Static) ProvidesMetadata() bool {
	return true
}

// Metadata returns the configured field values.
func (s *Static) Metadata(kind MetadataKind) string {
	switch kind {
	case TrackTitle:
		return s.config.Title
	case TrackArtist:
		return s.config.Artist
	case TrackAlbum:
		return s.config.Album
	case AlbumArt:
		return s.artwork()
	default:
		return ""
	}
}

// artwork lazily loads and base64-encodes the configured artwork file.
// A missing or unreadable file degrades to no artwork.
func (s *Static) artwork() string {
	s.artOnce.Do(func() {
		if s.config.ArtworkPath == "" {
			return
		}

		data, err := os.ReadFile(s.config.ArtworkPath)
		if err != nil {
			s.logger.Warn("Failed to read artwork file",
				slog.String("path", s.config.ArtworkPath),
				slog.String("error", err.Error()),
			)
			return
		}

		s.art = base64.StdEncoding.EncodeToString(data)
	})

	return s.art
}
