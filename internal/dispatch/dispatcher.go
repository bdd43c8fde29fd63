package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/skypro1111/airfoil-metadata-service/internal/artwork"
	"github.com/skypro1111/airfoil-metadata-service/internal/capability"
	"github.com/skypro1111/airfoil-metadata-service/internal/metrics"
	"github.com/skypro1111/airfoil-metadata-service/internal/protocol"
)

// Dispatcher resolves inbound command tokens against a capability
// provider. It is stateless apart from the injected collaborators and
// is shared by all sessions.
type Dispatcher struct {
	provider capability.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a dispatcher. The provider is mandatory; the engine has
// no meaningful degraded mode without one.
func New(provider capability.Provider, logger *slog.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("capability provider must not be nil")
	}

	return &Dispatcher{
		provider: provider,
		logger:   logger,
		metrics:  m,
	}, nil
}

// Handle maps one inbound message body to its response text
// (pre-encoding). Unknown tokens yield an empty response, not an
// error: the peer probes with tokens this service may not know.
func (d *Dispatcher) Handle(msg string) string {
	switch msg {
	case protocol.CmdSupportsRemoteControl:
		d.metrics.RecordCommand(msg)
		return boolResponse(d.supportsRemoteControl())

	case protocol.CmdProvidesTrackData:
		d.metrics.RecordCommand(msg)
		return boolResponse(d.providesMetadata())

	case protocol.CmdRemotePlayPause:
		d.metrics.RecordCommand(msg)
		return d.remoteControl(capability.PlayPause)

	case protocol.CmdRemoteTrackNext:
		d.metrics.RecordCommand(msg)
		return d.remoteControl(capability.NextTrack)

	case protocol.CmdRemoteTrackPrevious:
		d.metrics.RecordCommand(msg)
		return d.remoteControl(capability.PreviousTrack)

	case protocol.CmdRequestTrackTitle:
		d.metrics.RecordCommand(msg)
		return d.metadata(capability.TrackTitle)

	case protocol.CmdRequestTrackArtist:
		d.metrics.RecordCommand(msg)
		return d.metadata(capability.TrackArtist)

	case protocol.CmdRequestTrackAlbum:
		d.metrics.RecordCommand(msg)
		return d.metadata(capability.TrackAlbum)

	case protocol.CmdRequestAlbumArt:
		d.metrics.RecordCommand(msg)
		return d.albumArt()

	default:
		d.metrics.RecordUnknownCommand()
		d.logger.Debug("Unknown command", slog.String("command", msg))
		return ""
	}
}

// supportsRemoteControl queries the provider's remote-control flag.
func (d *Dispatcher) supportsRemoteControl() (supported bool) {
	defer d.recoverProvider("supports_remote_control", func() { supported = false })
	return d.provider.SupportsRemoteControl()
}

// providesMetadata queries the provider's metadata flag.
func (d *Dispatcher) providesMetadata() (provides bool) {
	defer d.recoverProvider("provides_metadata", func() { provides = false })
	return d.provider.ProvidesMetadata()
}

// remoteControl invokes a playback action. Unsupported capability and
// handler failure both surface as an empty response.
func (d *Dispatcher) remoteControl(kind capability.RemoteControlKind) (resp string) {
	defer d.recoverProvider(kind.String(), func() { resp = "" })

	if !d.provider.SupportsRemoteControl() {
		return ""
	}
	if !d.provider.HandleRemoteControl(kind) {
		return ""
	}
	return protocol.ResponseOK
}

// metadata fetches one now-playing field verbatim.
func (d *Dispatcher) metadata(kind capability.MetadataKind) (value string) {
	defer d.recoverProvider(kind.String(), func() { value = "" })

	if !d.provider.ProvidesMetadata() {
		return ""
	}
	return d.provider.Metadata(kind)
}

// albumArt fetches artwork and normalizes it to PNG. An empty provider
// result stays empty without touching the normalizer.
func (d *Dispatcher) albumArt() string {
	art := d.metadata(capability.AlbumArt)
	if art == "" {
		return ""
	}

	normalized := artwork.Normalize(art)
	switch {
	case normalized == "":
		d.metrics.RecordArtworkFailure()
		d.logger.Warn("Album art normalization failed, dropping artwork",
			slog.Int("payload_size", len(art)),
		)
	case normalized != art:
		d.metrics.RecordArtworkConversion()
	}

	return normalized
}

// boolResponse renders a capability flag as its wire literal.
func boolResponse(b bool) string {
	if b {
		return protocol.ResponseTrue
	}
	return protocol.ResponseFalse
}

// recoverProvider converts a provider panic into a failure outcome.
// The capability provider is host-application code; a fault there must
// surface to the peer as "unavailable", never as a process crash.
func (d *Dispatcher) recoverProvider(operation string, onPanic func()) {
	if r := recover(); r != nil {
		d.logger.Error("Capability provider panicked",
			slog.String("operation", operation),
			slog.Any("panic", r),
		)
		onPanic()
	}
}
