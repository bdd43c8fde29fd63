package protocol

import "strconv"

// emptyResponse is what an empty body goes out as. Airfoil's receiving
// code chokes on a true zero-length body ("0;"), so empty responses
// are substituted with a single space. This is a compatibility
// contract with the peer, not a bug.
const emptyResponse = "1; "

// EncodeResponse formats outgoing response text per the wire grammar
// "{byteLength};{body}", where byteLength is the UTF-8 byte count of
// the body.
func EncodeResponse(text string) []byte {
	if text == "" {
		return []byte(emptyResponse)
	}

	buf := make([]byte, 0, len(text)+8)
	buf = strconv.AppendInt(buf, int64(len(text)), 10)
	buf = append(buf, LengthDelimiter)
	buf = append(buf, text...)
	return buf
}
