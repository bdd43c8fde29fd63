package artwork

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const formatPNG = "png"

// Normalize ensures a base64-encoded album-art payload decodes to PNG
// data. PNG input is returned unchanged to avoid a needless re-encode;
// every other recognized format is converted. Artwork is best effort:
// any failure (bad base64, undecodable bytes, unsupported format,
// encoder error) yields "" rather than an error, so a broken image can
// never take the connection down.
func Normalize(encoded string) string {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	if format == formatPNG {
		return encoded
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
