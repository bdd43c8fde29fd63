package capability

import "fmt"

// RemoteControlKind identifies a playback action requested by the peer.
type RemoteControlKind int

const (
	PlayPause RemoteControlKind = iota
	NextTrack
	PreviousTrack
)

// String returns a human-readable name for logging.
func (k RemoteControlKind) String() string {
	switch k {
	case PlayPause:
		return "play_pause"
	case NextTrack:
		return "next_track"
	case PreviousTrack:
		return "previous_track"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MetadataKind identifies a now-playing metadata field.
type MetadataKind int

const (
	TrackTitle MetadataKind = iota
	TrackArtist
	TrackAlbum
	AlbumArt
)

// String returns a human-readable name for logging.
func (k MetadataKind) String() string {
	switch k {
	case TrackTitle:
		return "track_title"
	case TrackArtist:
		return "track_artist"
	case TrackAlbum:
		return "track_album"
	case AlbumArt:
		return "album_art"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Provider is the host-side source of playback control and metadata.
// One instance is shared read-only across all protocol sessions, so
// implementations must be safe for concurrent use.
//
// HandleRemoteControl reports whether the action was carried out.
// Metadata returns the requested field, or "" when it is unavailable;
// for AlbumArt the value is the base64 encoding of the raw image bytes
// in whatever format the player holds them.
type Provider interface {
	SupportsRemoteControl() bool
	HandleRemoteControl(kind RemoteControlKind) bool
	ProvidesMetadata() bool
	Metadata(kind MetadataKind) string
}
