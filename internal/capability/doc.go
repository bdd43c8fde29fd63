// Package capability defines the abstraction through which the
// protocol engine asks the host player for remote control and
// now-playing metadata. Implementations are injected once at startup
// and treated as read-only by the engine.
package capability
