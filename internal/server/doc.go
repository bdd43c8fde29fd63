// Package server provides the byte-stream transport adapter that
// feeds the protocol engine, plus the HTTP monitoring API. The engine
// itself is transport-agnostic; this package is the reference TCP
// implementation of its transport collaborator.
package server
