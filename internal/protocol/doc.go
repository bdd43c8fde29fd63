// Package protocol implements the length-prefixed text wire format
// spoken by Airfoil. It handles per-connection message framing,
// response encoding including the empty-body accommodation, and the
// remote-control command vocabulary.
package protocol
