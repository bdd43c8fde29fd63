// Package mpd implements a capability provider backed by a Music
// Player Daemon instance. MPD failures never propagate to the protocol
// engine; they degrade to "unsupported/unavailable" answers.
package mpd
