// Package session provides the protocol engine: it owns per-connection
// framer state, bridges byte deliveries from the transport into the
// framer, and forwards dispatcher output back to the transport. One
// session exists per live connection; its lifetime is exactly the
// connection's lifetime.
package session
