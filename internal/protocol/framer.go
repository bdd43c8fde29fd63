package protocol

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedLength indicates that a length prefix contained something
// other than decimal digits. The byte stream can no longer be trusted
// to realign on a message boundary, so the caller should reset the
// framer and tear down the connection.
var ErrMalformedLength = errors.New("malformed length prefix")

// Framer states
const (
	stateAwaitingLength = iota
	stateAwaitingBody
)

// Maximum capacity preallocated for a message body. Larger declared
// lengths still work, the buffer just grows as bytes arrive.
const maxBodyPrealloc = 64 * 1024

// Framer reconstructs discrete messages from a continuous byte stream
// using the "{byteLength};{body}" wire grammar. One Framer serves
// exactly one connection; it is not safe for concurrent use.
//
// The declared length counts UTF-8 bytes, not characters, so the
// framer consumes raw bytes. Completion fires at exact byte equality,
// which also means a message can never hold more body bytes than its
// declared length: the byte after the final body byte always starts
// the next length prefix.
type Framer struct {
	state     int
	length    int
	lengthBuf []byte
	body      []byte
}

// NewFramer creates a framer in the AwaitingLength state.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed consumes a single byte from the stream. When the byte completes
// a message, the message body is returned with complete=true and the
// framer is immediately ready for the next length prefix. A message
// with declared length zero completes on the delimiter itself, before
// any further byte is consumed.
func (f *Framer) Feed(b byte) (msg string, complete bool, err error) {
	switch f.state {
	case stateAwaitingLength:
		if b != LengthDelimiter {
			f.lengthBuf = append(f.lengthBuf, b)
			return "", false, nil
		}

		n, err := parseLength(f.lengthBuf)
		if err != nil {
			return "", false, err
		}

		f.length = n
		f.lengthBuf = f.lengthBuf[:0]
		f.state = stateAwaitingBody
		if cap(f.body) == 0 && n > 0 {
			prealloc := n
			if prealloc > maxBodyPrealloc {
				prealloc = maxBodyPrealloc
			}
			f.body = make([]byte, 0, prealloc)
		}

		// Zero-length bodies complete right here.
		return f.completeIfDone()

	case stateAwaitingBody:
		f.body = append(f.body, b)
		return f.completeIfDone()

	default:
		return "", false, fmt.Errorf("framer in unknown state %d", f.state)
	}
}

// FeedBytes feeds a chunk of raw bytes in order and collects every
// message completed along the way. On a framing error the messages
// completed before the error are still returned.
func (f *Framer) FeedBytes(data []byte) ([]string, error) {
	var msgs []string
	for _, b := range data {
		msg, complete, err := f.Feed(b)
		if err != nil {
			return msgs, err
		}
		if complete {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// Reset forcibly returns the framer to AwaitingLength with empty
// accumulators, discarding any partially received message. Only safe
// when the connection itself is being torn down.
func (f *Framer) Reset() {
	f.state = stateAwaitingLength
	f.length = 0
	f.lengthBuf = f.lengthBuf[:0]
	f.body = nil
}

// completeIfDone emits the accumulated body once it reaches the
// declared length and rearms the framer for the next message.
func (f *Framer) completeIfDone() (string, bool, error) {
	if len(f.body) < f.length {
		return "", false, nil
	}

	msg := string(f.body)
	f.state = stateAwaitingLength
	f.length = 0
	f.body = nil
	return msg, true, nil
}

// parseLength parses the accumulated length token as a non-negative
// decimal integer. An empty token or any non-digit byte is a protocol
// error.
func parseLength(token []byte) (int, error) {
	if len(token) == 0 {
		return 0, fmt.Errorf("%w: empty length token", ErrMalformedLength)
	}

	n := 0
	for _, b := range token {
		if b < '0' || b > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedLength, string(token))
		}
		if n > (math.MaxInt-9)/10 {
			return 0, fmt.Errorf("%w: %q overflows", ErrMalformedLength, string(token))
		}
		n = n*10 + int(b-'0')
	}

	return n, nil
}
