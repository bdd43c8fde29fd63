package protocol

// LengthDelimiter separates the decimal length prefix from the message body.
const LengthDelimiter = ';'

// Command tokens sent by the peer as message bodies.
const (
	CmdSupportsRemoteControl = "supportsRemoteControl"
	CmdRemotePlayPause       = "remotePlayPause"
	CmdRemoteTrackNext       = "remoteTrackNext"
	CmdRemoteTrackPrevious   = "remoteTrackPrevious"
	CmdProvidesTrackData     = "providesTrackData"
	CmdRequestTrackTitle     = "requestTrackTitle"
	CmdRequestTrackArtist    = "requestTrackArtist"
	CmdRequestTrackAlbum     = "requestTrackAlbum"
	CmdRequestAlbumArt       = "requestAlbumArt"
)

// Response literals.
const (
	ResponseTrue  = "true"
	ResponseFalse = "false"
	ResponseOK    = "OK"
)
