// Package artwork normalizes album-art payloads to PNG, the only
// image format the peer accepts.
package artwork
