package artwork

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// testImage builds a small image with distinguishable pixels.
func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func encodeBase64PNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func encodeBase64JPEG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNormalizePNGPassthrough(t *testing.T) {
	encoded := encodeBase64PNG(t)

	got := Normalize(encoded)
	if got != encoded {
		t.Error("Expected PNG input to be returned unchanged")
	}
}

func TestNormalizeJPEGConvertsToPNG(t *testing.T) {
	encoded := encodeBase64JPEG(t)

	got := Normalize(encoded)
	if got == "" {
		t.Fatal("Expected a converted payload, got empty string")
	}
	if got == encoded {
		t.Fatal("Expected JPEG input to be re-encoded, got the original payload")
	}

	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("Converted payload is not valid base64: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Converted payload does not decode as an image: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected PNG output, got %s", format)
	}
	if got, want := img.Bounds(), testImage().Bounds(); got != want {
		t.Errorf("Converted image bounds %v, expected %v", got, want)
	}
}

func TestNormalizeFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty input", encoded: ""},
		{name: "not base64", encoded: "!!! definitely not base64 !!!"},
		{
			name:    "base64 of non-image bytes",
			encoded: base64.StdEncoding.EncodeToString([]byte("just some text, no image here")),
		},
		{
			name:    "truncated png",
			encoded: base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.encoded); got != "" {
				t.Errorf("Expected empty string, got %d bytes", len(got))
			}
		})
	}
}
